package engine

import (
	"sort"
	"strconv"
)

// ============================================================================
// ENERGY MIX: Three channels summed per bucket
// ============================================================================

// EnergyMixByType sums electricity, natural gas and steam per property type
// and keeps the types with the largest total.
func EnergyMixByType(view RecordView, opts ...Option) []EnergyMix {
	cfg := applyOptions(opts)
	groups := groupBySingle(view, DimPropertyType)

	mix := make([]EnergyMix, len(groups))
	for i, g := range groups {
		mix[i] = EnergyMix{
			Name:        g.Key,
			Electricity: SumMeasure(g.View, MeasureElectricity),
			NaturalGas:  SumMeasure(g.View, MeasureNaturalGas),
			Steam:       SumMeasure(g.View, MeasureSteam),
		}
	}

	sort.Slice(mix, func(i, j int) bool {
		ti, tj := mix[i].Total(), mix[j].Total()
		if ti != tj {
			return ti > tj
		}
		return mix[i].Name < mix[j].Name
	})

	if len(mix) > cfg.MixTypes {
		mix = mix[:cfg.MixTypes]
	}
	return mix
}

// DecadeTrend buckets known-year records by decade, ascending.
func DecadeTrend(view RecordView) []TrendPoint {
	groups := groupBySingle(view, DimDecade)
	SortGroups(groups, SortKeyNumericAsc)

	trend := make([]TrendPoint, 0, len(groups))
	for _, g := range groups {
		decade, err := strconv.Atoi(g.Key)
		if err != nil {
			continue
		}
		trend = append(trend, TrendPoint{
			Decade:      decade,
			Electricity: SumMeasure(g.View, MeasureElectricity),
			NaturalGas:  SumMeasure(g.View, MeasureNaturalGas),
			Steam:       SumMeasure(g.View, MeasureSteam),
			CO2:         SumMeasure(g.View, MeasureCO2),
			Count:       g.View.Len(),
		})
	}
	return trend
}
