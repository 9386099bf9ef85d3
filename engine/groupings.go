package engine

// ============================================================================
// RANKED GROUPINGS: CO2 (or building count) summed per categorical key
// ============================================================================

// TopN sums measure per dimension value and keeps the n largest, ties broken
// by key ascending.
func TopN(view RecordView, dimension, measure string, n int) []NamedValue {
	return namedValues(GroupAndAggregate(view, dimension, measure, SortValueDesc, n))
}

// TopNeighborhoods ranks neighborhoods by summed CO2.
func TopNeighborhoods(view RecordView, opts ...Option) []NamedValue {
	cfg := applyOptions(opts)
	return TopN(view, DimNeighborhood, MeasureCO2, cfg.TopNeighborhoods)
}

// TopPropertyTypes ranks property types by summed CO2.
func TopPropertyTypes(view RecordView, opts ...Option) []NamedValue {
	cfg := applyOptions(opts)
	return TopN(view, DimPropertyType, MeasureCO2, cfg.TopPropertyTypes)
}

// PropertyTypeShare is the pie version of the property-type ranking: the
// largest slices keep their name and, when more groups exist, the remainder
// is summed into a single trailing Others slice.
func PropertyTypeShare(view RecordView, opts ...Option) []NamedValue {
	cfg := applyOptions(opts)
	ranked := TopN(view, DimPropertyType, MeasureCO2, 0)
	if len(ranked) <= cfg.ShareSlices {
		return ranked
	}

	var rest float64
	for _, nv := range ranked[cfg.ShareSlices:] {
		rest += nv.Value
	}
	out := append([]NamedValue{}, ranked[:cfg.ShareSlices]...)
	return append(out, NamedValue{Name: cfg.OthersLabel, Value: rest})
}

// BuildingsByYear sums building counts per known construction year.
func BuildingsByYear(view RecordView) []NamedValue {
	return namedValues(GroupAndAggregate(view, DimYear, MeasureBuildings, SortKeyNumericAsc, 0))
}

// FloorDistribution sums building counts per floor count.
func FloorDistribution(view RecordView) []NamedValue {
	return namedValues(GroupAndAggregate(view, DimFloors, MeasureBuildings, SortKeyNumericAsc, 0))
}

func namedValues(groups []Group) []NamedValue {
	out := make([]NamedValue, len(groups))
	for i, g := range groups {
		out[i] = NamedValue{Name: g.Key, Value: g.Value}
	}
	return out
}
