package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "telemetrygen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, uint64(120), cfg.Run.DurationS)
	assert.Equal(t, uint64(1000), cfg.Run.SampleRateHz)
	assert.Equal(t, "SIM-001", cfg.Run.LaunchID)
	assert.Equal(t, uint64(1337), cfg.Run.Seed)
	assert.Equal(t, 50.0, cfg.Run.TimestampJitterUS)
	assert.Nil(t, cfg.Run.MaxRows)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, "Kerbal", cfg.VehicleType)
	assert.False(t, cfg.Influx.Enabled)
	assert.Equal(t, 5000, cfg.InfluxConfig().BatchSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
run:
  duration_s: 30
  sample_rate_hz: 500
  launch_id: FILE-001
  max_rows: 1000
output_dir: /tmp/runs
influx:
  enabled: true
  url: http://influx:8086
  bucket: flights
  batch_size: 250
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(30), cfg.Run.DurationS)
	assert.Equal(t, uint64(500), cfg.Run.SampleRateHz)
	assert.Equal(t, "FILE-001", cfg.Run.LaunchID)
	require.NotNil(t, cfg.Run.MaxRows)
	assert.Equal(t, uint64(1000), *cfg.Run.MaxRows)
	// Unset keys keep their defaults.
	assert.Equal(t, uint64(1337), cfg.Run.Seed)
	assert.Equal(t, "/tmp/runs", cfg.OutputDir)

	ic := cfg.InfluxConfig()
	assert.True(t, cfg.Influx.Enabled)
	assert.Equal(t, "http://influx:8086", ic.URL)
	assert.Equal(t, "flights", ic.Bucket)
	assert.Equal(t, "my_org", ic.Org)
	assert.Equal(t, 250, ic.BatchSize)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "run:\n  launch_id: FILE-001\n  seed: 7\n")
	t.Setenv("TELEMETRYGEN_LAUNCH_ID", "ENV-001")
	t.Setenv("TELEMETRYGEN_INFLUX_TOKEN", "s3cret")
	t.Setenv("TELEMETRYGEN_STATUS_ADDR", ":9090")
	t.Setenv("TELEMETRYGEN_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ENV-001", cfg.Run.LaunchID)
	assert.Equal(t, uint64(7), cfg.Run.Seed)
	assert.Equal(t, "s3cret", cfg.Influx.Token)
	assert.Equal(t, ":9090", cfg.Status.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") }},
		{"bad yaml", func(t *testing.T) string { return writeFile(t, "run: [unterminated") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			assert.Error(t, err)
		})
	}

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("TELEMETRYGEN_SEED", "not-a-number")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero rate", func(c *Config) { c.Run.SampleRateHz = 0 }, true},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"influx without url", func(c *Config) { c.Influx.Enabled = true; c.Influx.URL = "" }, true},
		{"influx disabled without url", func(c *Config) { c.Influx.URL = "" }, false},
		{"auth without token", func(c *Config) { c.Status.AuthEnabled = true }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
