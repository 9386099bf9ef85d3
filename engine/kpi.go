package engine

// ============================================================================
// KPI SUMMARY
// ============================================================================

// KPIs computes the scalar summary of the filtered view.
//
//	totalCO2  = Σ co2
//	avgCO2    = totalCO2 / count            (0 when count = 0)
//	maxCO2    = max(co2..., 0)
//	intensity = totalCO2 * 1000 / Σ energy  (0 when Σ energy = 0)
func KPIs(view RecordView) KPISummary {
	total := SumMeasure(view, MeasureCO2)
	energy := SumMeasure(view, MeasureEnergy)

	k := KPISummary{
		TotalCO2:       total,
		AvgCO2:         AvgMeasure(view, MeasureCO2),
		Count:          view.Len(),
		TotalEnergy:    energy,
		TotalFloorArea: SumMeasure(view, MeasureGFA),
	}
	if m := MaxMeasure(view, MeasureCO2); m > 0 {
		k.MaxCO2 = m
	}
	if energy != 0 {
		k.Intensity = total * 1000 / energy
	}
	return k
}
