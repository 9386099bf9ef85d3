package engine

import (
	"fmt"

	"github.com/spektr-org/carbonlens/record"
)

// ============================================================================
// DERIVE: View dispatcher
// ============================================================================
// Entry points:
//   Compute(name, filtered, all, opts...) : one view
//   DeriveAll(records, sel, opts...)      : every view, one pass
//
// Pipeline:
//   1. Filter the normalized set by the selection → SubView
//   2. Fan out to each derivation (pure, independent)
//   3. Assemble a Snapshot
// ============================================================================

// Compute derives one view. filtered is the selection subset; all is the
// unfiltered set, read only by the facets view.
func Compute(name ViewName, filtered, all RecordView, opts ...Option) (any, error) {
	switch name {
	case ViewKPIs:
		k := KPIs(filtered)
		return &k, nil
	case ViewTopNeighborhoods:
		return TopNeighborhoods(filtered, opts...), nil
	case ViewTopPropertyTypes:
		return TopPropertyTypes(filtered, opts...), nil
	case ViewPropertyTypeShare:
		return PropertyTypeShare(filtered, opts...), nil
	case ViewEnergyMix:
		return EnergyMixByType(filtered, opts...), nil
	case ViewDecadeTrend:
		return DecadeTrend(filtered), nil
	case ViewYearScatter:
		return YearScatter(filtered, opts...), nil
	case ViewEnergyScatter:
		return EnergyScatter(filtered, opts...), nil
	case ViewHeatPoints:
		return HeatPoints(filtered), nil
	case ViewBuildingsByYear:
		return BuildingsByYear(filtered), nil
	case ViewFloorDistribution:
		return FloorDistribution(filtered), nil
	case ViewFacets:
		f := FacetOptions(all)
		return &f, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
}

// DeriveAll filters records by sel and computes every view.
func DeriveAll(records []record.Record, sel Selection, opts ...Option) *Snapshot {
	all := BindRecords(records)
	filtered := ApplyFilters(all, sel.Filters())

	snap := &Snapshot{Selection: sel}
	for _, name := range AllViews {
		v, err := Compute(name, filtered, all, opts...)
		if err != nil {
			continue
		}
		snap.Set(name, v)
	}
	return snap
}

// Set stores a computed view value. Values of the wrong type are ignored.
func (s *Snapshot) Set(name ViewName, value any) {
	switch name {
	case ViewKPIs:
		s.KPIs, _ = value.(*KPISummary)
	case ViewTopNeighborhoods:
		s.TopNeighborhoods, _ = value.([]NamedValue)
	case ViewTopPropertyTypes:
		s.TopPropertyTypes, _ = value.([]NamedValue)
	case ViewPropertyTypeShare:
		s.PropertyTypeShare, _ = value.([]NamedValue)
	case ViewEnergyMix:
		s.EnergyMix, _ = value.([]EnergyMix)
	case ViewDecadeTrend:
		s.DecadeTrend, _ = value.([]TrendPoint)
	case ViewYearScatter:
		s.YearScatter, _ = value.([]ScatterPoint)
	case ViewEnergyScatter:
		s.EnergyScatter, _ = value.([]ScatterPoint)
	case ViewHeatPoints:
		s.HeatPoints, _ = value.([]HeatPoint)
	case ViewBuildingsByYear:
		s.BuildingsByYear, _ = value.([]NamedValue)
	case ViewFloorDistribution:
		s.FloorDistribution, _ = value.([]NamedValue)
	case ViewFacets:
		s.Facets, _ = value.(*Facets)
	}
}

// Get returns the stored value of one view, nil when it was not requested.
func (s *Snapshot) Get(name ViewName) any {
	switch name {
	case ViewKPIs:
		return s.KPIs
	case ViewTopNeighborhoods:
		return s.TopNeighborhoods
	case ViewTopPropertyTypes:
		return s.TopPropertyTypes
	case ViewPropertyTypeShare:
		return s.PropertyTypeShare
	case ViewEnergyMix:
		return s.EnergyMix
	case ViewDecadeTrend:
		return s.DecadeTrend
	case ViewYearScatter:
		return s.YearScatter
	case ViewEnergyScatter:
		return s.EnergyScatter
	case ViewHeatPoints:
		return s.HeatPoints
	case ViewBuildingsByYear:
		return s.BuildingsByYear
	case ViewFloorDistribution:
		return s.FloorDistribution
	case ViewFacets:
		return s.Facets
	}
	return nil
}
