package telemetry

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	zero := uint64(0)
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"default", func(*Config) {}, nil},
		{"zero sample rate", func(c *Config) { c.SampleRateHz = 0 }, ErrZeroSampleRate},
		{"empty launch id", func(c *Config) { c.LaunchID = "" }, ErrEmptyLaunchID},
		{"negative jitter", func(c *Config) { c.TimestampJitterUS = -1 }, ErrNegativeJitter},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"zero max rows", func(c *Config) { c.MaxRows = &zero }, ErrInvalidMaxRows},
		{"zero duration is valid", func(c *Config) { c.DurationS = 0 }, nil},
		{"ticks at limit", func(c *Config) { c.DurationS = 1; c.SampleRateHz = MaxTicks }, nil},
		{"ticks over limit", func(c *Config) { c.DurationS = 1; c.SampleRateHz = MaxTicks + 1 }, ErrTooManyTicks},
		{"product wraps", func(c *Config) { c.DurationS = 1 << 33; c.SampleRateHz = 1 << 31 }, ErrTooManyTicks},
		{"huge rate zero duration", func(c *Config) { c.DurationS = 0; c.SampleRateHz = math.MaxUint64 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestConfigCounts(t *testing.T) {
	cfg := Config{DurationS: 1, SampleRateHz: 10, LaunchID: "x", BatchSize: 1}
	assert.Equal(t, uint64(10), cfg.Ticks())
	assert.Equal(t, uint64(290), cfg.EstimatedPoints())
	assert.Equal(t, uint64(290), cfg.TotalPoints())
	assert.False(t, cfg.ExceedsMaxRows())
	assert.InDelta(t, 0.1, cfg.TickPeriod(), 1e-12)

	limit := uint64(100)
	cfg.MaxRows = &limit
	assert.Equal(t, uint64(100), cfg.TotalPoints())
	assert.True(t, cfg.ExceedsMaxRows())
}

func TestOutputName(t *testing.T) {
	cfg := Config{DurationS: 120, SampleRateHz: 1000, LaunchID: "SIM-001"}
	assert.Equal(t, "SIM-001_1000hz_120s", cfg.OutputName())
}

func TestDatasetAccessors(t *testing.T) {
	var ds Dataset
	assert.True(t, ds.Empty())
	_, ok := ds.First()
	assert.False(t, ok)

	ds.Readings = make([]Reading, 58)
	ds.Readings[0].ElapsedMS = 7
	first, ok := ds.First()
	require.True(t, ok)
	assert.Equal(t, uint64(7), first.ElapsedMS)
	assert.Equal(t, 2, ds.Ticks())
	assert.Equal(t, 58, ds.Len())
}
