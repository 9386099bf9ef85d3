package engine

// ============================================================================
// ENGINE OPTIONS: Functional options for derivation sizes
// ============================================================================

// Option configures derivation behavior via functional options pattern.
type Option func(*config)

type config struct {
	TopNeighborhoods int    // bars in the neighborhood ranking
	TopPropertyTypes int    // bars in the property-type ranking
	MixTypes         int    // property types in the energy mix
	ShareSlices      int    // named slices before the tail is merged
	OthersLabel      string // name of the merged tail slice
	YearScatter      int    // points in the year/CO2 sample
	EnergyScatter    int    // points in the energy/CO2 sample
}

// WithTopN sets the neighborhood and property-type ranking sizes.
func WithTopN(neighborhoods, propertyTypes int) Option {
	return func(c *config) {
		if neighborhoods > 0 {
			c.TopNeighborhoods = neighborhoods
		}
		if propertyTypes > 0 {
			c.TopPropertyTypes = propertyTypes
		}
	}
}

// WithMixTypes sets how many property types the energy mix keeps.
func WithMixTypes(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.MixTypes = n
		}
	}
}

// WithShareSlices sets how many property types keep their own slice before
// the rest merge into label.
func WithShareSlices(n int, label string) Option {
	return func(c *config) {
		if n > 0 {
			c.ShareSlices = n
		}
		if label != "" {
			c.OthersLabel = label
		}
	}
}

// WithScatterLimits bounds the two scatter samples.
func WithScatterLimits(year, energy int) Option {
	return func(c *config) {
		if year > 0 {
			c.YearScatter = year
		}
		if energy > 0 {
			c.EnergyScatter = energy
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		TopNeighborhoods: 10,
		TopPropertyTypes: 15,
		MixTypes:         5,
		ShareSlices:      5,
		OthersLabel:      "Others",
		YearScatter:      300,
		EnergyScatter:    200,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
