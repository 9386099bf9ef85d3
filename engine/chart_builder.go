package engine

import "strconv"

// ============================================================================
// CHART BUILDER: Produces ChartConfig from snapshot views
// ============================================================================
// Only categorical and bucketed views become charts. Scatter samples and heat
// points are rendered from their raw slices.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#7c3aed", "#c084fc", "#10b981", "#f59e0b", "#ef4444",
	"#64748b", "#06b6d4", "#ec4899", "#84cc16", "#f97316",
}

// Energy channel colors, stable across charts.
var channelColors = []string{"#3b82f6", "#f59e0b", "#ef4444"}

var channelNames = []string{"Electricity", "Natural Gas", "Steam"}

// BuildChart produces a ChartConfig for a view held by snap. It returns nil
// when the view has no chart form or holds no data.
func BuildChart(name ViewName, snap *Snapshot) *ChartConfig {
	if snap == nil {
		return nil
	}

	var config *ChartConfig
	switch name {
	case ViewTopNeighborhoods:
		config = namedValueChart("bar", "CO2 Emissions by Neighborhood", "Neighborhood", "CO2 (t)", snap.TopNeighborhoods)
	case ViewTopPropertyTypes:
		config = namedValueChart("bar", "CO2 Emissions by Property Type", "Property Type", "CO2 (t)", snap.TopPropertyTypes)
	case ViewPropertyTypeShare:
		config = namedValueChart("pie", "Emissions Share by Property Type", "", "CO2 (t)", snap.PropertyTypeShare)
	case ViewBuildingsByYear:
		config = namedValueChart("bar", "Buildings by Year Built", "Year Built", "Buildings", snap.BuildingsByYear)
	case ViewFloorDistribution:
		config = namedValueChart("bar", "Buildings by Number of Floors", "Floors", "Buildings", snap.FloorDistribution)
	case ViewEnergyMix:
		config = energyMixChart(snap.EnergyMix)
	case ViewDecadeTrend:
		config = decadeTrendChart(snap.DecadeTrend)
	default:
		return nil
	}
	return config
}

func namedValueChart(chartType, title, xAxis, yAxis string, values []NamedValue) *ChartConfig {
	if len(values) == 0 {
		return nil
	}
	series := buildSingleSeries(values, yAxis)
	colors := assignColors(len(series))
	if chartType == "pie" {
		colors = assignColors(len(values))
	}
	return &ChartConfig{
		ChartType:  chartType,
		Title:      title,
		XAxis:      xAxis,
		YAxis:      yAxis,
		Series:     series,
		Colors:     colors,
		ShowLegend: chartType == "pie",
		ShowGrid:   chartType != "pie",
	}
}

func energyMixChart(mix []EnergyMix) *ChartConfig {
	if len(mix) == 0 {
		return nil
	}
	labels := make([]string, len(mix))
	channels := [3][]float64{}
	for i, m := range mix {
		labels[i] = m.Name
		channels[0] = append(channels[0], m.Electricity)
		channels[1] = append(channels[1], m.NaturalGas)
		channels[2] = append(channels[2], m.Steam)
	}
	return &ChartConfig{
		ChartType:  "stacked_bar",
		Title:      "Energy Mix (Top Property Types)",
		XAxis:      "Property Type",
		YAxis:      "Energy (kBtu)",
		Series:     buildChannelSeries(labels, channels),
		Colors:     channelColors,
		ShowLegend: true,
		ShowGrid:   true,
	}
}

func decadeTrendChart(trend []TrendPoint) *ChartConfig {
	if len(trend) == 0 {
		return nil
	}
	labels := make([]string, len(trend))
	channels := [3][]float64{}
	for i, p := range trend {
		labels[i] = strconv.Itoa(p.Decade) + "s"
		channels[0] = append(channels[0], p.Electricity)
		channels[1] = append(channels[1], p.NaturalGas)
		channels[2] = append(channels[2], p.Steam)
	}
	return &ChartConfig{
		ChartType:  "area",
		Title:      "Energy Use by Construction Decade",
		XAxis:      "Decade",
		YAxis:      "Energy (kBtu)",
		Series:     buildChannelSeries(labels, channels),
		Colors:     channelColors,
		ShowLegend: true,
		ShowGrid:   true,
	}
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func buildSingleSeries(values []NamedValue, seriesName string) []ChartSeries {
	if seriesName == "" {
		seriesName = "Value"
	}

	points := make([]ChartPoint, 0, len(values))
	for _, v := range values {
		points = append(points, ChartPoint{
			Label: v.Name,
			Value: RoundTo2(v.Value),
		})
	}

	return []ChartSeries{{
		Name: seriesName,
		Data: points,
	}}
}

func buildChannelSeries(labels []string, channels [3][]float64) []ChartSeries {
	series := make([]ChartSeries, 0, len(channels))
	for c, values := range channels {
		points := make([]ChartPoint, len(values))
		for i, v := range values {
			points[i] = ChartPoint{Label: labels[i], Value: RoundTo2(v)}
		}
		series = append(series, ChartSeries{
			Name:  channelNames[c],
			Data:  points,
			Color: channelColors[c],
		})
	}
	return series
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
