package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/spektr-org/carbonlens/engine"
	"github.com/spektr-org/carbonlens/record"
)

// Config describes one carbonlens process.
type Config struct {
	SourceURL    string        `env:"CARBONLENS_SOURCE_URL"`
	CSVPath      string        `env:"CARBONLENS_CSV_PATH"`
	BindAddr     string        `env:"CARBONLENS_BIND_ADDR"     envDefault:":8090"`
	FetchTimeout time.Duration `env:"CARBONLENS_FETCH_TIMEOUT" envDefault:"10s"`
	CO2Fields    []string      `env:"CARBONLENS_CO2_FIELDS"    envSeparator:","`
	// FieldKeys is a JSON object overriding source key lists per field,
	// e.g. {"neighborhood":["District"]}. Omitted fields keep their defaults.
	FieldKeys string `env:"CARBONLENS_FIELD_KEYS"`

	TopNeighborhoods int `env:"CARBONLENS_TOP_NEIGHBORHOODS" envDefault:"10"`
	TopTypes         int `env:"CARBONLENS_TOP_TYPES"         envDefault:"15"`
	MixTypes         int `env:"CARBONLENS_MIX_TYPES"         envDefault:"5"`
	ShareSlices      int `env:"CARBONLENS_SHARE_SLICES"      envDefault:"5"`
	YearScatter      int `env:"CARBONLENS_YEAR_SCATTER"      envDefault:"300"`
	EnergyScatter    int `env:"CARBONLENS_ENERGY_SCATTER"    envDefault:"200"`

	MemoEntries int `env:"CARBONLENS_MEMO_ENTRIES" envDefault:"1024"`

	PreviewRows    int `env:"CARBONLENS_PREVIEW_ROWS"    envDefault:"50"`
	PreviewColumns int `env:"CARBONLENS_PREVIEW_COLUMNS" envDefault:"10"`

	LogLevel string `env:"CARBONLENS_LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"CARBONLENS_LOGFILE"`

	fields *record.Fields
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.CO2Fields = trimCSV(cfg.CO2Fields)
	if cfg.FieldKeys != "" {
		fields := record.DefaultFields()
		if err := json.Unmarshal([]byte(cfg.FieldKeys), &fields); err != nil {
			return Config{}, fmt.Errorf("parse CARBONLENS_FIELD_KEYS: %w", err)
		}
		cfg.fields = &fields
	}
	return cfg, nil
}

// Validate reports settings no component can run with.
func (c Config) Validate() error {
	if c.SourceURL == "" && c.CSVPath == "" {
		return errors.New("one of CARBONLENS_SOURCE_URL or CARBONLENS_CSV_PATH is required")
	}
	limits := map[string]int{
		"CARBONLENS_TOP_NEIGHBORHOODS": c.TopNeighborhoods,
		"CARBONLENS_TOP_TYPES":         c.TopTypes,
		"CARBONLENS_MIX_TYPES":         c.MixTypes,
		"CARBONLENS_SHARE_SLICES":      c.ShareSlices,
		"CARBONLENS_YEAR_SCATTER":      c.YearScatter,
		"CARBONLENS_ENERGY_SCATTER":    c.EnergyScatter,
		"CARBONLENS_MEMO_ENTRIES":      c.MemoEntries,
	}
	for key, v := range limits {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", key, v)
		}
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("CARBONLENS_FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout)
	}
	return nil
}

// EngineOptions maps the derivation sizes onto engine options.
func (c Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithTopN(c.TopNeighborhoods, c.TopTypes),
		engine.WithMixTypes(c.MixTypes),
		engine.WithShareSlices(c.ShareSlices, ""),
		engine.WithScatterLimits(c.YearScatter, c.EnergyScatter),
	}
}

// RecordOptions maps the field preferences onto normalizer options. The CO2
// order is applied after a CARBONLENS_FIELD_KEYS override.
func (c Config) RecordOptions() []record.Option {
	var opts []record.Option
	if c.fields != nil {
		opts = append(opts, record.WithFields(*c.fields))
	}
	return append(opts, record.WithCO2Order(c.CO2Fields...))
}

// trimCSV removes empty entries from a string slice.
func trimCSV(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
