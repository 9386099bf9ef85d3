package engine

import (
	"strconv"

	"github.com/spektr-org/carbonlens/record"
)

// Dimension keys exposed by the record adapter.
const (
	DimNeighborhood = "neighborhood"
	DimPropertyType = "primary_property_type"
	DimYear         = "year_built" // "" when the year is unknown
	DimDecade       = "decade"     // "" when the year is unknown
	DimFloors       = "floors"
	DimID           = "id"
)

// Measure keys exposed by the record adapter.
const (
	MeasureCO2         = "co2"
	MeasureElectricity = "electricity"
	MeasureNaturalGas  = "natural_gas"
	MeasureSteam       = "steam"
	MeasureEnergy      = "total_energy"
	MeasureSiteEnergy  = "site_energy_use"
	MeasureGFA         = "gfa"
	MeasureBuildings   = "buildings"
	MeasureYear        = "year"
	MeasureLatitude    = "latitude"
	MeasureLongitude   = "longitude"
	MeasureGeolocated  = "geolocated" // 1 or 0
)

var recordAdapter = NewDomainAdapter[record.Record]().
	Dimension(DimNeighborhood, func(r record.Record) string { return r.Neighborhood }).
	Dimension(DimPropertyType, func(r record.Record) string { return r.PrimaryPropertyType }).
	Dimension(DimYear, func(r record.Record) string {
		if !r.YearKnown {
			return ""
		}
		return strconv.Itoa(r.YearBuilt)
	}).
	Dimension(DimDecade, func(r record.Record) string {
		d, ok := r.Decade()
		if !ok {
			return ""
		}
		return strconv.Itoa(d)
	}).
	Dimension(DimFloors, func(r record.Record) string { return strconv.Itoa(r.NumberOfFloors) }).
	Dimension(DimID, func(r record.Record) string { return r.ID }).
	Measure(MeasureCO2, func(r record.Record) float64 { return r.CO2Emissions }).
	Measure(MeasureElectricity, func(r record.Record) float64 { return r.Electricity }).
	Measure(MeasureNaturalGas, func(r record.Record) float64 { return r.NaturalGas }).
	Measure(MeasureSteam, func(r record.Record) float64 { return r.Steam }).
	Measure(MeasureEnergy, func(r record.Record) float64 { return r.TotalEnergy() }).
	Measure(MeasureSiteEnergy, func(r record.Record) float64 { return r.SiteEnergyUse }).
	Measure(MeasureGFA, func(r record.Record) float64 { return r.PropertyGFATotal }).
	Measure(MeasureBuildings, func(r record.Record) float64 { return float64(r.NumberOfBuildings) }).
	Measure(MeasureYear, func(r record.Record) float64 { return float64(r.YearBuilt) }).
	Measure(MeasureLatitude, func(r record.Record) float64 { return r.Latitude }).
	Measure(MeasureLongitude, func(r record.Record) float64 { return r.Longitude }).
	Measure(MeasureGeolocated, func(r record.Record) float64 {
		if r.Geolocated() {
			return 1
		}
		return 0
	})

// BindRecords returns a zero-copy view over normalized records.
func BindRecords(records []record.Record) *DomainView[record.Record] {
	return recordAdapter.Bind(records)
}
