// Package config provides centralized configuration management for the pipeline.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"path/filepath"
	"time"
)

// Config holds all pipeline configuration.
// All settings can be configured via environment variables.
type Config struct {
	Input   InputConfig
	Output  OutputConfig
	Store   StoreConfig
	Publish PublishConfig
	Logging LoggingConfig
}

// InputConfig names the four CSV extracts.
type InputConfig struct {
	// Dir is the directory holding the CSV files (default: nutr)
	Dir string `env:"INPUT_DIR" default:"nutr"`

	Nutrients   string `env:"NUTRIENTS_CSV" default:"Nutrients.csv"`
	Products    string `env:"PRODUCTS_CSV" default:"Products.csv"`
	Serving     string `env:"SERVING_CSV" default:"Serving_size.csv"`
	Derivations string `env:"DERIVATIONS_CSV" default:"Derivation_Code_Description.csv"`
}

// OutputConfig holds the locations of the pipeline's products.
type OutputConfig struct {
	// JSONPath is where the final product document is written
	JSONPath string `env:"OUTPUT_JSON" default:"nutr/final_products.json"`

	// Indent pretty-prints the JSON document (default: true)
	Indent bool `env:"OUTPUT_INDENT" default:"true"`

	// Snapshot enables copying the working store to SnapshotPath (default: true)
	Snapshot bool `env:"SNAPSHOT" default:"true"`

	// SnapshotPath is the durable SQLite file
	SnapshotPath string `env:"SNAPSHOT_PATH" default:"nutr.sqlite"`
}

// StoreConfig holds working store and loading settings.
type StoreConfig struct {
	// DSN is the SQLite data source of the working store (default: in memory)
	DSN string `env:"WORK_DSN" default:":memory:"`

	// BatchSize is the number of rows inserted per transaction (default: 100000)
	BatchSize int `env:"LOAD_BATCH_SIZE" default:"100000"`

	// ProgressInterval is the number of decoded rows between progress reports (default: 1000000)
	ProgressInterval int `env:"LOAD_PROGRESS_INTERVAL" default:"1000000"`

	// PagesPerStep is the number of pages copied per snapshot step (default: 250)
	PagesPerStep int `env:"SNAPSHOT_PAGES_PER_STEP" default:"250"`
}

// PublishConfig holds the optional PostgreSQL publication settings.
type PublishConfig struct {
	// URL is the PostgreSQL connection string; publication is skipped when empty
	URL string `env:"PUBLISH_DATABASE_URL" envAlt:"DATABASE_URL"`

	// Table is the destination table (default: final_products)
	Table string `env:"PUBLISH_TABLE" default:"final_products"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"4"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// Timeout bounds the whole publication step (default: 10m)
	Timeout time.Duration `env:"PUBLISH_TIMEOUT" default:"10m"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Enabled reports whether publication to PostgreSQL is configured.
func (c *PublishConfig) Enabled() bool {
	return c.URL != ""
}

// Path resolves a source file name against the input directory.
// Absolute names are returned unchanged.
func (c *InputConfig) Path(name string) string {
	if filepath.IsAbs(name) || c.Dir == "" {
		return name
	}
	return filepath.Join(c.Dir, name)
}

// Sources maps each source table key to its resolved CSV path.
func (c *InputConfig) Sources() map[string]string {
	return map[string]string{
		"nutrients":   c.Path(c.Nutrients),
		"products":    c.Path(c.Products),
		"serving":     c.Path(c.Serving),
		"derivations": c.Path(c.Derivations),
	}
}
