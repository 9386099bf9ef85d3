package record

import (
	"math"
	"strconv"
)

// ============================================================================
// RECORD TYPES: Raw source rows and their typed, normalized form
// ============================================================================

// RawRecord is one building row exactly as the data source delivered it.
// Values are strings, numbers, or missing; no key is guaranteed.
type RawRecord map[string]any

// Record is the typed form of a RawRecord. Records are values: nothing in
// this module mutates one after Normalize returns it.
type Record struct {
	ID string `json:"id"`

	// YearBuilt is only meaningful when YearKnown is true. Records with an
	// unknown year stay in the set but never join year-keyed views.
	YearBuilt int  `json:"yearBuilt"`
	YearKnown bool `json:"yearKnown"`

	NumberOfBuildings int     `json:"numberOfBuildings"`
	NumberOfFloors    int     `json:"numberOfFloors"`
	PropertyGFATotal  float64 `json:"propertyGFATotal"`

	CO2Emissions float64 `json:"co2Emissions"`

	Neighborhood        string `json:"neighborhood"`
	PrimaryPropertyType string `json:"primaryPropertyType"`

	Electricity float64 `json:"electricity"` // kBtu
	NaturalGas  float64 `json:"naturalGas"`  // kBtu
	Steam       float64 `json:"steam"`       // kBtu

	EnergyStarScore float64 `json:"energyStarScore"`
	SiteEnergyUse   float64 `json:"siteEnergyUse"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TotalEnergy is electricity + natural gas + steam, in kBtu.
func (r Record) TotalEnergy() float64 {
	return r.Electricity + r.NaturalGas + r.Steam
}

// Decade returns floor(year/10)*10. ok is false when the year is unknown.
func (r Record) Decade() (decade int, ok bool) {
	if !r.YearKnown {
		return 0, false
	}
	return int(math.Floor(float64(r.YearBuilt)/10) * 10), true
}

// Geolocated reports whether both coordinates are finite and non-zero.
func (r Record) Geolocated() bool {
	return usableCoordinate(r.Latitude) && usableCoordinate(r.Longitude)
}

func usableCoordinate(v float64) bool {
	return v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// columns is the export order of normalized fields.
var columns = []string{
	"id",
	"yearBuilt",
	"numberOfBuildings",
	"numberOfFloors",
	"propertyGFATotal",
	"co2Emissions",
	"neighborhood",
	"primaryPropertyType",
	"electricity",
	"naturalGas",
	"steam",
	"energyStarScore",
	"siteEnergyUse",
	"latitude",
	"longitude",
}

// Columns returns the field names of a normalized record, in export order.
func Columns() []string {
	return append([]string(nil), columns...)
}

// Values renders the record in Columns order. An unknown year is "".
func (r Record) Values() []string {
	year := ""
	if r.YearKnown {
		year = strconv.Itoa(r.YearBuilt)
	}
	return []string{
		r.ID,
		year,
		strconv.Itoa(r.NumberOfBuildings),
		strconv.Itoa(r.NumberOfFloors),
		formatFloat(r.PropertyGFATotal),
		formatFloat(r.CO2Emissions),
		r.Neighborhood,
		r.PrimaryPropertyType,
		formatFloat(r.Electricity),
		formatFloat(r.NaturalGas),
		formatFloat(r.Steam),
		formatFloat(r.EnergyStarScore),
		formatFloat(r.SiteEnergyUse),
		formatFloat(r.Latitude),
		formatFloat(r.Longitude),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
