// Package config loads riolauncher's runtime configuration. Values are
// layered in order: built-in defaults, the TOML file, then RIOLAUNCHER_*
// environment variables. The result is validated before it is returned.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/danpasecinic/riolauncher/apperr"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// RIOLAUNCHER_LOGGING_LEVEL or RIOLAUNCHER_REGISTRY_CLEANUP_TIMEOUT.
const EnvPrefix = "RIOLAUNCHER"

// Config holds all riolauncher configuration.
type Config struct {
	Rio       RioConfig       `toml:"rio"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Registry  RegistryConfig  `toml:"registry"`
	Events    EventsConfig    `toml:"events"`
	Cache     CacheConfig     `toml:"cache"`
}

// RioConfig locates the terminal and its configuration file.
type RioConfig struct {
	Binary        string   `toml:"binary" validate:"required"`
	Args          []string `toml:"args"`
	ConfigPath    string   `toml:"config_path" split_words:"true" validate:"required"`
	WatchDebounce Duration `toml:"watch_debounce" split_words:"true"`
}

type LoggingConfig struct {
	Level       string   `toml:"level" validate:"oneof=debug info warn error"`
	Development bool     `toml:"development"`
	OutputPaths []string `toml:"output_paths" split_words:"true"`
}

type TelemetryConfig struct {
	Enabled      bool    `toml:"enabled"`
	OTLPEndpoint string  `toml:"otlp_endpoint" envconfig:"OTLP_ENDPOINT" validate:"omitempty,url"`
	SampleRatio  float64 `toml:"sample_ratio" split_words:"true" validate:"gte=0,lte=1"`
	MetricsAddr  string  `toml:"metrics_addr" split_words:"true" validate:"omitempty,hostname_port"`
}

type RegistryConfig struct {
	Parallel       bool     `toml:"parallel"`
	Strict         bool     `toml:"strict"`
	CleanupTimeout Duration `toml:"cleanup_timeout" split_words:"true"`
}

type EventsConfig struct {
	HistoryCapacity int `toml:"history_capacity" split_words:"true" validate:"gte=1"`
}

type CacheConfig struct {
	TTL        Duration `toml:"ttl"`
	MaxEntries int      `toml:"max_entries" split_words:"true" validate:"gte=1"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Rio: RioConfig{
			Binary:        "rio",
			ConfigPath:    DefaultRioConfigPath(),
			WatchDebounce: Duration{250 * time.Millisecond},
		},
		Logging: LoggingConfig{
			Level:       "info",
			OutputPaths: []string{"stderr"},
		},
		Telemetry: TelemetryConfig{
			SampleRatio: 1,
		},
		Registry: RegistryConfig{
			CleanupTimeout: Duration{10 * time.Second},
		},
		Events: EventsConfig{
			HistoryCapacity: 1000,
		},
		Cache: CacheConfig{
			TTL:        Duration{5 * time.Minute},
			MaxEntries: 256,
		},
	}
}

// DefaultRioConfigPath is where Rio reads its configuration on this system.
func DefaultRioConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join("~", ".config")
	}
	return filepath.Join(dir, "rio", "config.toml")
}

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result. An empty path or a missing file
// leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperr.New(apperr.ErrCodeConfiguration, "invalid environment override", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return apperr.New(apperr.ErrCodeConfiguration, "failed to read "+path, err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return apperr.New(apperr.ErrCodeConfiguration, "failed to parse "+path, err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		err = c.validateDurations()
	}
	if err != nil {
		return apperr.New(apperr.ErrCodeConfiguration, "invalid configuration", formatValidationError(err))
	}
	return nil
}

func (c *Config) validateDurations() error {
	durations := map[string]Duration{
		"rio.watch_debounce":       c.Rio.WatchDebounce,
		"registry.cleanup_timeout": c.Registry.CleanupTimeout,
		"cache.ttl":                c.Cache.TTL,
	}
	var problems []string
	for name, d := range durations {
		if d.Duration < 0 {
			problems = append(problems, name+" must not be negative")
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func formatValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		field := strings.ToLower(strings.TrimPrefix(e.Namespace(), "Config."))
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "url":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid URL", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, e.Tag(), e.Param()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
