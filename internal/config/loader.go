package config

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from environment variables and applies defaults
// for unset values. Callers apply their overrides and then call Validate.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := populate(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	return cfg, nil
}

// populate walks the struct and fills tagged fields from the environment.
func populate(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)

		if !fv.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := populate(fv); err != nil {
				return err
			}
			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}

		value, ok := lookup(name, field.Tag.Get("envAlt"))
		if !ok {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", name)
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := assign(fv, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, value, err)
		}
	}

	return nil
}

// lookup returns the first non-empty value of the primary or alternate variable.
func lookup(name, alt string) (string, bool) {
	if v := os.Getenv(name); v != "" {
		return v, true
	}
	if alt != "" {
		if v := os.Getenv(alt); v != "" {
			return v, true
		}
	}
	return "", false
}

// assign parses value into the field according to its kind.
func assign(field reflect.Value, value string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}

// Validate checks that the configuration is usable.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Inputs
	for env, name := range map[string]string{
		"NUTRIENTS_CSV":   c.Input.Nutrients,
		"PRODUCTS_CSV":    c.Input.Products,
		"SERVING_CSV":     c.Input.Serving,
		"DERIVATIONS_CSV": c.Input.Derivations,
	} {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, env+" must not be empty")
		}
	}

	// Outputs
	if strings.TrimSpace(c.Output.JSONPath) == "" {
		errs = append(errs, "OUTPUT_JSON must not be empty")
	}
	if c.Output.Snapshot && strings.TrimSpace(c.Output.SnapshotPath) == "" {
		errs = append(errs, "SNAPSHOT_PATH must not be empty when SNAPSHOT is enabled")
	}

	// Store
	if c.Store.DSN == "" {
		errs = append(errs, "WORK_DSN must not be empty")
	}
	if c.Store.BatchSize <= 0 {
		errs = append(errs, "LOAD_BATCH_SIZE must be positive")
	}
	if c.Store.ProgressInterval <= 0 {
		errs = append(errs, "LOAD_PROGRESS_INTERVAL must be positive")
	}
	if c.Store.PagesPerStep <= 0 {
		errs = append(errs, "SNAPSHOT_PAGES_PER_STEP must be positive")
	}

	// Publication is only checked when enabled
	if c.Publish.Enabled() {
		if c.Publish.Table == "" {
			errs = append(errs, "PUBLISH_TABLE must not be empty when PUBLISH_DATABASE_URL is set")
		}
		if c.Publish.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Publish.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
		if c.Publish.MaxConns < c.Publish.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Publish.MaxConns, c.Publish.MinConns))
		}
		if c.Publish.Timeout <= 0 {
			errs = append(errs, "PUBLISH_TIMEOUT must be positive")
		}
	}

	// Logging
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		// map iteration above is unordered
		sort.Strings(errs)
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The publication URL is masked.
func (c *Config) String() string {
	publish := "disabled"
	if c.Publish.Enabled() {
		publish = fmt.Sprintf("{URL: [MASKED], Table: %q, MaxConns: %d}", c.Publish.Table, c.Publish.MaxConns)
	}

	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Input: {Dir: %q}, ", c.Input.Dir)
	fmt.Fprintf(&b, "Output: {JSON: %q, Snapshot: %v, SnapshotPath: %q}, ",
		c.Output.JSONPath, c.Output.Snapshot, c.Output.SnapshotPath)
	fmt.Fprintf(&b, "Store: {DSN: %q, BatchSize: %d, ProgressInterval: %d, PagesPerStep: %d}, ",
		c.Store.DSN, c.Store.BatchSize, c.Store.ProgressInterval, c.Store.PagesPerStep)
	fmt.Fprintf(&b, "Publish: %s, ", publish)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
