// Package config loads filterlab settings from a YAML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/ironsheep/filterlab/internal/diffmap"
	"github.com/ironsheep/filterlab/internal/imaging"
)

// Environment variables that override file settings.
const (
	EnvLogLevel = "FILTERLAB_LOG_LEVEL"
	EnvStrength = "FILTERLAB_STRENGTH"
)

// Config holds every tunable setting.
type Config struct {
	// Strength scales every suggested slider.
	Strength float64 `yaml:"strength"`

	// MaxWorkingSize bounds the longer side of the analysis copy.
	MaxWorkingSize int `yaml:"max_working_size"`

	ExportQuality int    `yaml:"export_quality"`
	ExportFormat  string `yaml:"export_format"`

	// HTTPAddr, when set, serves the REST API instead of MCP on stdio.
	HTTPAddr string `yaml:"http_addr"`

	// LogLevel is "debug", "info" or "error".
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Strength:       diffmap.DefaultStrength,
		MaxWorkingSize: imaging.DefaultMaxWorkingSize,
		ExportQuality:  imaging.DefaultExportQuality,
		ExportFormat:   "jpeg",
		LogLevel:       "info",
	}
}

// Parse overlays YAML onto the defaults. Unknown keys are rejected.
func Parse(b []byte) (Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(b, &c); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return c, nil
}

// Load reads path (if non-empty), applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if c, err = Parse(b); err != nil {
			return Config{}, err
		}
	}

	if err := c.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvStrength); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStrength, err)
		}
		c.Strength = f
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Strength <= 0 {
		return fmt.Errorf("strength must be positive, got %v", c.Strength)
	}
	if c.MaxWorkingSize <= 0 {
		return fmt.Errorf("max_working_size must be positive, got %d", c.MaxWorkingSize)
	}
	if c.ExportQuality < 1 || c.ExportQuality > 100 {
		return fmt.Errorf("export_quality must be 1..100, got %d", c.ExportQuality)
	}
	if _, _, err := imaging.ParseFormat(c.ExportFormat); err != nil {
		return fmt.Errorf("export_format: %w", err)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "error":
	default:
		return fmt.Errorf("log_level must be debug, info or error, got %q", c.LogLevel)
	}
	return nil
}

// Debug reports whether debug logging is enabled.
func (c Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

// Info reports whether informational messages should be logged.
func (c Config) Info() bool {
	return c.Debug() || strings.EqualFold(c.LogLevel, "info")
}

// AsYAML renders c as it would appear in a config file. It backs the
// --print-config flag.
func (c Config) AsYAML() (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(b), nil
}
