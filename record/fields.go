package record

// ============================================================================
// FIELD DIALECTS: Fallback key lists per logical field
// ============================================================================
// Two record dialects are deployed upstream. Each logical field lists every
// source key it may appear under, in preference order. Lookup tries exact
// keys first, then a case-insensitive match.
// ============================================================================

// Fields maps each logical Record field to its source keys.
type Fields struct {
	YearBuilt         []string `json:"yearBuilt"`
	NumberOfBuildings []string `json:"numberOfBuildings"`
	NumberOfFloors    []string `json:"numberOfFloors"`
	PropertyGFATotal  []string `json:"propertyGFATotal"`
	CO2Emissions      []string `json:"co2Emissions"`
	Neighborhood      []string `json:"neighborhood"`
	PropertyType      []string `json:"primaryPropertyType"`
	Electricity       []string `json:"electricity"`
	NaturalGas        []string `json:"naturalGas"`
	Steam             []string `json:"steam"`
	EnergyStarScore   []string `json:"energyStarScore"`
	SiteEnergyUse     []string `json:"siteEnergyUse"`
	Latitude          []string `json:"latitude"`
	Longitude         []string `json:"longitude"`
}

// Defaults for string fields.
const (
	UnknownNeighborhood = "Unknown"
	OtherPropertyType   = "Other"
)

// DefaultFields returns the key lists for both deployed dialects.
// CO2 prefers TotalGHGEmissions over CO2Emissions.
func DefaultFields() Fields {
	return Fields{
		YearBuilt:         []string{"YearBuilt"},
		NumberOfBuildings: []string{"NumberofBuildings", "NumberOfBuildings"},
		NumberOfFloors:    []string{"NumberofFloors", "NumberOfFloors"},
		PropertyGFATotal:  []string{"PropertyGFATotal"},
		CO2Emissions:      []string{"TotalGHGEmissions", "CO2Emissions"},
		Neighborhood:      []string{"Neighborhood"},
		PropertyType:      []string{"PrimaryPropertyType"},
		Electricity:       []string{"Electricity(kBtu)", "Electricity"},
		NaturalGas:        []string{"NaturalGas(kBtu)", "NaturalGas"},
		Steam:             []string{"SteamUse(kBtu)", "SteamUse"},
		EnergyStarScore:   []string{"ENERGYSTARScore", "EnergyStarScore"},
		SiteEnergyUse:     []string{"SiteEnergyUse(kBtu)", "SiteEnergyUse"},
		Latitude:          []string{"Latitude", "lat"},
		Longitude:         []string{"Longitude", "lon"},
	}
}

// named returns the logical field names paired with their key lists, in a
// stable order. Used by Discover.
func (f Fields) named() []namedKeys {
	return []namedKeys{
		{"yearBuilt", f.YearBuilt},
		{"numberOfBuildings", f.NumberOfBuildings},
		{"numberOfFloors", f.NumberOfFloors},
		{"propertyGFATotal", f.PropertyGFATotal},
		{"co2Emissions", f.CO2Emissions},
		{"neighborhood", f.Neighborhood},
		{"primaryPropertyType", f.PropertyType},
		{"electricity", f.Electricity},
		{"naturalGas", f.NaturalGas},
		{"steam", f.Steam},
		{"energyStarScore", f.EnergyStarScore},
		{"siteEnergyUse", f.SiteEnergyUse},
		{"latitude", f.Latitude},
		{"longitude", f.Longitude},
	}
}

type namedKeys struct {
	name string
	keys []string
}

// Option adjusts the field keys used by Normalize and Discover.
type Option func(*Fields)

// WithCO2Order replaces the CO2 fallback order. Empty input keeps the default.
func WithCO2Order(keys ...string) Option {
	return func(f *Fields) {
		if len(keys) > 0 {
			f.CO2Emissions = append([]string(nil), keys...)
		}
	}
}

// WithFields replaces every key list at once.
func WithFields(fields Fields) Option {
	return func(f *Fields) {
		*f = fields
	}
}

func applyOptions(opts []Option) Fields {
	f := DefaultFields()
	for _, opt := range opts {
		opt(&f)
	}
	return f
}
