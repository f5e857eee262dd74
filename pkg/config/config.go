// Package config exposes the typed run configuration loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Paths locates every file the pipeline reads or writes
type Paths struct {
	DuckDB    string `yaml:"duckdb"`     // durable bar store
	PricesCSV string `yaml:"prices_csv"` // optional tidy prices export
	Ledger    string `yaml:"ledger"`     // prediction history CSV
	Model     string `yaml:"model"`      // persisted model JSON
	Metadata  string `yaml:"metadata"`   // training metadata JSON
}

// Features holds the rolling-window sizes of the feature engine
type Features struct {
	ShortWindow int `yaml:"short_window"`
	LongWindow  int `yaml:"long_window"`
}

// NATS configures the optional signal fan-out; an empty URL disables it
type NATS struct {
	URL    string `yaml:"url"`
	Stream string `yaml:"stream"`
}

// Config collects every configuration leaf for one instrument's pipeline
type Config struct {
	Instrument string   `yaml:"instrument"`
	Start      string   `yaml:"start"` // YYYY-MM-DD, beginning of collected history
	LogLevel   string   `yaml:"log_level"`
	Paths      Paths    `yaml:"paths"`
	Features   Features `yaml:"features"`
	NATS       NATS     `yaml:"nats"`
}

// Default returns the configuration used when no YAML file is given
func Default() *Config {
	return &Config{
		Instrument: "SPY",
		Start:      "2018-01-01",
		LogLevel:   "info",
		Paths: Paths{
			DuckDB:   "data/morrow.duckdb",
			Ledger:   "predictions/history.csv",
			Model:    "models/logistic_model.json",
			Metadata: "models/metadata.json",
		},
		Features: Features{
			ShortWindow: 5,
			LongWindow:  20,
		},
		NATS: NATS{
			Stream: "morrow",
		},
	}
}

// Load reads a YAML file and hydrates a Config over the defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the leaves the pipeline cannot run without
func (c *Config) Validate() error {
	if c.Instrument == "" {
		return fmt.Errorf("config: instrument is required")
	}
	if c.Paths.Ledger == "" {
		return fmt.Errorf("config: paths.ledger is required")
	}
	if c.Features.ShortWindow < 2 || c.Features.LongWindow < 2 {
		return fmt.Errorf("config: feature windows must be at least 2")
	}
	if c.Features.ShortWindow > c.Features.LongWindow {
		return fmt.Errorf("config: short_window must not exceed long_window")
	}
	return nil
}
