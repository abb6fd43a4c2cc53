// Package config carries run configuration: defaults, an optional YAML
// file, and CLI flag overrides layered in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"csvload/internal/loader"
	"csvload/internal/store"
)

// Config is the full configuration for one load run.
type Config struct {
	// Input settings.
	Input        string   `yaml:"input"`
	Delimiter    string   `yaml:"delimiter"`
	PrimaryKey   string   `yaml:"primary_key"`
	IgnoreFields []string `yaml:"ignore_fields"`

	// Load settings.
	CompactEvery int64 `yaml:"compact_every"`
	BatchSize    int   `yaml:"batch_size"`

	Target store.Config `yaml:"target"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in defaults: a sqlite target next to the input
// file, comma delimiter, and the standard cadence.
func Default() *Config {
	return &Config{
		Delimiter:    ",",
		CompactEvery: loader.DefaultCompactEvery,
		BatchSize:    loader.DefaultBatchSize,
		Target:       store.Config{Driver: "sqlite"},
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Load reads a YAML config file over the defaults. A missing path returns
// plain defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings that every run needs.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input file is required")
	}
	if len([]rune(c.Delimiter)) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	if c.Target.Driver == "sqlite" && c.Target.Path == "" {
		c.Target.Path = DeriveOutputPath(c.Input)
	}
	return nil
}

// DelimiterRune returns the configured delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	return []rune(c.Delimiter)[0]
}

// IgnoreSet returns the excluded field names as a lookup set.
func (c *Config) IgnoreSet() map[string]bool {
	if len(c.IgnoreFields) == 0 {
		return nil
	}
	out := make(map[string]bool, len(c.IgnoreFields))
	for _, f := range c.IgnoreFields {
		out[f] = true
	}
	return out
}

// DeriveOutputPath replaces the input file's extension with .db, the
// default location of the sqlite store.
func DeriveOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".db"
}
