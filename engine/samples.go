package engine

// ============================================================================
// SAMPLES: Bounded projections for scatter plots and heat maps
// ============================================================================
// Selection is a deterministic prefix of the filtered order, never random.
// ============================================================================

// YearScatter projects the first known-year records to (year, CO2).
func YearScatter(view RecordView, opts ...Option) []ScatterPoint {
	cfg := applyOptions(opts)
	points := make([]ScatterPoint, 0, min(view.Len(), cfg.YearScatter))
	for i := 0; i < view.Len() && len(points) < cfg.YearScatter; i++ {
		if view.Dimension(i, DimYear) == "" {
			continue
		}
		points = append(points, ScatterPoint{
			ID: view.Dimension(i, DimID),
			X:  view.Measure(i, MeasureYear),
			Y:  view.Measure(i, MeasureCO2),
		})
	}
	return points
}

// EnergyScatter projects the first records to (site energy use, CO2) with
// floor area as magnitude.
func EnergyScatter(view RecordView, opts ...Option) []ScatterPoint {
	cfg := applyOptions(opts)
	n := min(view.Len(), cfg.EnergyScatter)
	points := make([]ScatterPoint, n)
	for i := 0; i < n; i++ {
		points[i] = ScatterPoint{
			ID: view.Dimension(i, DimID),
			X:  view.Measure(i, MeasureSiteEnergy),
			Y:  view.Measure(i, MeasureCO2),
			Z:  view.Measure(i, MeasureGFA),
		}
	}
	return points
}

// HeatPoints emits one CO2-weighted point per geolocated record, in view order.
func HeatPoints(view RecordView) []HeatPoint {
	points := make([]HeatPoint, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		if view.Measure(i, MeasureGeolocated) == 0 {
			continue
		}
		points = append(points, HeatPoint{
			Lat:    view.Measure(i, MeasureLatitude),
			Lon:    view.Measure(i, MeasureLongitude),
			Weight: view.Measure(i, MeasureCO2),
		})
	}
	return points
}
