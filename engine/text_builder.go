package engine

// ============================================================================
// TEXT BUILDER: KPI cards as formatted lines
// ============================================================================

// BuildText formats a KPI summary the way the dashboard cards show it.
func BuildText(k KPISummary) *TextData {
	return &TextData{
		Count: k.Count,
		Lines: []TextLine{
			{Label: "Total Emissions", Value: FormatNumber(k.TotalCO2, 0), RawValue: k.TotalCO2, Unit: "t"},
			{Label: "Carbon Intensity", Value: FormatNumber(k.Intensity, 2), RawValue: k.Intensity, Unit: "kg/kBtu"},
			{Label: "Average per Building", Value: FormatNumber(k.AvgCO2, 1), RawValue: k.AvgCO2, Unit: "t"},
			{Label: "Highest Emitter", Value: FormatNumber(k.MaxCO2, 1), RawValue: k.MaxCO2, Unit: "t"},
			{Label: "Buildings Analyzed", Value: FormatInt(k.Count), RawValue: float64(k.Count)},
		},
	}
}

// String renders one line per figure: "Total Emissions: 1,234 t".
func (t *TextData) String() string {
	out := ""
	for i, l := range t.Lines {
		if i > 0 {
			out += "\n"
		}
		out += l.Label + ": " + l.Value
		if l.Unit != "" {
			out += " " + l.Unit
		}
	}
	return out
}
