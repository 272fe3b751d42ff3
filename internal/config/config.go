// Package config loads run settings from an optional YAML file and
// TELEMETRYGEN_* environment variables. Command-line flags are applied on
// top by the caller, giving flags > env > file > defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/star/telemetrygen/internal/export"
	"github.com/star/telemetrygen/internal/telemetry"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "TELEMETRYGEN_"

// Command-line run defaults. They differ from telemetry.DefaultConfig,
// which describes a full-rate library run.
const (
	DefaultSampleRateHz      = 1000
	DefaultLaunchID          = "SIM-001"
	DefaultTimestampJitterUS = 50.0
)

// Config is the full program configuration.
type Config struct {
	Run telemetry.Config `yaml:"run"`

	OutputDir       string `yaml:"output_dir" env:"OUTPUT_DIR"`
	VehicleType     string `yaml:"vehicle_type" env:"VEHICLE_TYPE"`
	EngineType      string `yaml:"engine_type" env:"ENGINE_TYPE"`
	DisableProgress bool   `yaml:"disable_progress" env:"DISABLE_PROGRESS"`
	LogLevel        string `yaml:"log_level" env:"LOG_LEVEL"`
	OtelEndpoint    string `yaml:"otel_endpoint" env:"OTEL_ENDPOINT"`

	Influx InfluxSection `yaml:"influx" envPrefix:"INFLUX_"`
	Status StatusConfig  `yaml:"status" envPrefix:"STATUS_"`
}

// InfluxSection is the InfluxDB connection plus an on/off switch.
type InfluxSection struct {
	Enabled             bool `yaml:"enabled" env:"ENABLED"`
	export.InfluxConfig `yaml:",inline"`
}

// StatusConfig controls the optional status HTTP server.
type StatusConfig struct {
	Addr        string `yaml:"addr" env:"ADDR"`
	AuthEnabled bool   `yaml:"auth_enabled" env:"AUTH_ENABLED"`
	AuthToken   string `yaml:"auth_token" env:"AUTH_TOKEN"`
	TrustProxy  bool   `yaml:"trust_proxy" env:"TRUST_PROXY"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	run := telemetry.DefaultConfig()
	run.SampleRateHz = DefaultSampleRateHz
	run.LaunchID = DefaultLaunchID
	run.TimestampJitterUS = DefaultTimestampJitterUS

	influx := export.DefaultInfluxConfig()
	influx.BatchSize = 0 // inherit Run.BatchSize
	return &Config{
		Run:         run,
		OutputDir:   "output",
		VehicleType: export.DefaultVehicleType,
		EngineType:  export.DefaultEngineType,
		LogLevel:    "info",
		Influx:      InfluxSection{InfluxConfig: influx},
	}
}

// Load returns the defaults overlaid with the YAML file at path (if any)
// and then with the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv overlays TELEMETRYGEN_* variables onto target.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// InfluxConfig returns the InfluxDB settings with the batch size
// defaulted from the run configuration.
func (c *Config) InfluxConfig() export.InfluxConfig {
	ic := c.Influx.InfluxConfig
	if ic.BatchSize == 0 {
		ic.BatchSize = c.Run.BatchSize
	}
	return ic
}

// Validate checks the whole configuration before any work starts.
func (c *Config) Validate() error {
	if err := c.Run.Validate(); err != nil {
		return err
	}
	if c.OutputDir == "" {
		return errors.New("output dir must not be empty")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Influx.Enabled {
		if err := c.InfluxConfig().Validate(); err != nil {
			return err
		}
	}
	if c.Status.AuthEnabled && c.Status.AuthToken == "" {
		return errors.New("status auth token is required when auth is enabled")
	}
	return nil
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return l, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}
