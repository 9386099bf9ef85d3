package engine

import "errors"

// ============================================================================
// CARBONLENS ENGINE TYPES
// ============================================================================
// Every derived view is a plain value with documented JSON field names.
// Consumers (charts, maps, tables) treat them as read-only snapshots.
//
// Dependency: engine only depends on the record package.
// ============================================================================

var (
	// ErrInvalidSelection is returned when a selection value cannot be parsed.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrUnknownView is returned for a view name the engine does not derive.
	ErrUnknownView = errors.New("unknown view")
)

// ============================================================================
// VIEW NAMES
// ============================================================================

// ViewName identifies one derived view.
type ViewName string

const (
	ViewKPIs              ViewName = "kpis"
	ViewTopNeighborhoods  ViewName = "topNeighborhoods"
	ViewTopPropertyTypes  ViewName = "topPropertyTypes"
	ViewPropertyTypeShare ViewName = "propertyTypeShare"
	ViewEnergyMix         ViewName = "energyMix"
	ViewDecadeTrend       ViewName = "decadeTrend"
	ViewYearScatter       ViewName = "yearScatter"
	ViewEnergyScatter     ViewName = "energyScatter"
	ViewHeatPoints        ViewName = "heatPoints"
	ViewBuildingsByYear   ViewName = "buildingsByYear"
	ViewFloorDistribution ViewName = "floorDistribution"
	ViewFacets            ViewName = "facets"
)

// AllViews lists every view in snapshot order.
var AllViews = []ViewName{
	ViewKPIs,
	ViewTopNeighborhoods,
	ViewTopPropertyTypes,
	ViewPropertyTypeShare,
	ViewEnergyMix,
	ViewDecadeTrend,
	ViewYearScatter,
	ViewEnergyScatter,
	ViewHeatPoints,
	ViewBuildingsByYear,
	ViewFloorDistribution,
	ViewFacets,
}

// ParseViewName validates a view name.
func ParseViewName(s string) (ViewName, error) {
	for _, v := range AllViews {
		if string(v) == s {
			return v, nil
		}
	}
	return "", ErrUnknownView
}

// DependsOnSelection reports whether a view reads the filtered subset.
// Facets read the unfiltered set so filter controls keep every option.
func (v ViewName) DependsOnSelection() bool {
	return v != ViewFacets
}

// ============================================================================
// GROUP: Intermediate computation result
// ============================================================================

// Group is one bucket of a grouping pass.
type Group struct {
	Key   string     `json:"key"`
	Value float64    `json:"value"`
	Count int        `json:"count"`
	View  RecordView `json:"-"` // records in this bucket (zero-copy)
}

// ============================================================================
// DERIVED VIEWS
// ============================================================================

// KPISummary holds the scalar dashboard figures. Every ratio is 0 when its
// denominator is 0.
type KPISummary struct {
	TotalCO2       float64 `json:"totalCO2"`
	AvgCO2         float64 `json:"avgCO2"`
	MaxCO2         float64 `json:"maxCO2"`
	Count          int     `json:"count"`
	Intensity      float64 `json:"intensity"` // kg CO2 per kBtu: TotalCO2*1000/TotalEnergy
	TotalEnergy    float64 `json:"totalEnergy"`
	TotalFloorArea float64 `json:"totalFloorArea"`
}

// NamedValue is one bar or slice: a group key and its summed value.
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// EnergyMix is the summed energy channels of one property type.
type EnergyMix struct {
	Name        string  `json:"name"`
	Electricity float64 `json:"electricity"`
	NaturalGas  float64 `json:"naturalGas"`
	Steam       float64 `json:"steam"`
}

// Total is the sum of the three channels.
func (m EnergyMix) Total() float64 {
	return m.Electricity + m.NaturalGas + m.Steam
}

// TrendPoint is one decade bucket of the construction-era trend.
type TrendPoint struct {
	Decade      int     `json:"decade"`
	Electricity float64 `json:"electricity"`
	NaturalGas  float64 `json:"naturalGas"`
	Steam       float64 `json:"steam"`
	CO2         float64 `json:"co2"`
	Count       int     `json:"count"`
}

// ScatterPoint is one projected record. Z is an optional magnitude.
type ScatterPoint struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z,omitempty"`
}

// HeatPoint is a weighted geolocation.
type HeatPoint struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Weight float64 `json:"weight"`
}

// Facets are the filter-control options present in the unfiltered set.
type Facets struct {
	Years         []int    `json:"years"`
	PropertyTypes []string `json:"propertyTypes"`
}

// Snapshot carries the views computed for one (record set, selection) pair.
// Views not requested are left nil (null in JSON); requested views that
// have no data are empty, never nil.
type Snapshot struct {
	Version   uint64    `json:"version"`
	Selection Selection `json:"selection"`

	KPIs              *KPISummary    `json:"kpis"`
	TopNeighborhoods  []NamedValue   `json:"topNeighborhoods"`
	TopPropertyTypes  []NamedValue   `json:"topPropertyTypes"`
	PropertyTypeShare []NamedValue   `json:"propertyTypeShare"`
	EnergyMix         []EnergyMix    `json:"energyMix"`
	DecadeTrend       []TrendPoint   `json:"decadeTrend"`
	YearScatter       []ScatterPoint `json:"yearScatter"`
	EnergyScatter     []ScatterPoint `json:"energyScatter"`
	HeatPoints        []HeatPoint    `json:"heatPoints"`
	BuildingsByYear   []NamedValue   `json:"buildingsByYear"`
	FloorDistribution []NamedValue   `json:"floorDistribution"`
	Facets            *Facets        `json:"facets"`
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// ============================================================================
// TEXT TYPES
// ============================================================================

// TextData is the KPI card content, pre-formatted for display.
type TextData struct {
	Lines []TextLine `json:"lines"`
	Count int        `json:"count"`
}

// TextLine is one labelled figure.
type TextLine struct {
	Label    string  `json:"label"`
	Value    string  `json:"value"`
	RawValue float64 `json:"rawValue"`
	Unit     string  `json:"unit,omitempty"`
}
