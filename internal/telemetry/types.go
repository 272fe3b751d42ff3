// Package telemetry holds the run configuration and the generated dataset.
package telemetry

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/star/telemetrygen/internal/sensor"
)

// Config errors returned by Validate.
var (
	ErrZeroSampleRate   = errors.New("sample rate must be greater than zero")
	ErrEmptyLaunchID    = errors.New("launch id must not be empty")
	ErrNegativeJitter   = errors.New("timestamp jitter must not be negative")
	ErrInvalidBatchSize = errors.New("batch size must be greater than zero")
	ErrInvalidMaxRows   = errors.New("max rows must be greater than zero")
	ErrTooManyTicks     = errors.New("duration × sample rate is too large")
)

// MaxTicks bounds duration × sample rate so tick and reading counts fit in
// an int on every platform the generator indexes with.
const MaxTicks = uint64(math.MaxInt / sensor.Count)

// Config describes one simulated flight.
type Config struct {
	DurationS         uint64  `yaml:"duration_s" env:"DURATION_S"`
	SampleRateHz      uint64  `yaml:"sample_rate_hz" env:"SAMPLE_RATE_HZ"`
	LaunchID          string  `yaml:"launch_id" env:"LAUNCH_ID"`
	Seed              uint64  `yaml:"seed" env:"SEED"`
	MaxRows           *uint64 `yaml:"max_rows,omitempty" env:"MAX_ROWS"`
	TimestampJitterUS float64 `yaml:"timestamp_jitter_us" env:"TIMESTAMP_JITTER_US"`
	BatchSize         int     `yaml:"batch_size" env:"BATCH_SIZE"`
}

// DefaultConfig returns a two minute, 10 kHz flight.
func DefaultConfig() Config {
	return Config{
		DurationS:         120,
		SampleRateHz:      10_000,
		LaunchID:          "eg_launch",
		Seed:              1337,
		TimestampJitterUS: 25.0,
		BatchSize:         5000,
	}
}

// Validate checks the invariants the generator relies on.
func (c Config) Validate() error {
	if c.SampleRateHz == 0 {
		return ErrZeroSampleRate
	}
	if c.LaunchID == "" {
		return ErrEmptyLaunchID
	}
	if c.TimestampJitterUS < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeJitter, c.TimestampJitterUS)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBatchSize, c.BatchSize)
	}
	if c.MaxRows != nil && *c.MaxRows == 0 {
		return ErrInvalidMaxRows
	}
	if c.DurationS != 0 && c.SampleRateHz > MaxTicks/c.DurationS {
		return fmt.Errorf("%w: %d s at %d Hz", ErrTooManyTicks, c.DurationS, c.SampleRateHz)
	}
	return nil
}

// Ticks returns the number of simulation steps: duration × sample rate.
func (c Config) Ticks() uint64 {
	return c.DurationS * c.SampleRateHz
}

// EstimatedPoints is the number of readings a full run produces.
func (c Config) EstimatedPoints() uint64 {
	return c.Ticks() * uint64(sensor.Count)
}

// TotalPoints is EstimatedPoints capped by MaxRows when set.
func (c Config) TotalPoints() uint64 {
	n := c.EstimatedPoints()
	if c.MaxRows != nil && *c.MaxRows < n {
		return *c.MaxRows
	}
	return n
}

// ExceedsMaxRows reports whether a full run would produce more than MaxRows readings.
func (c Config) ExceedsMaxRows() bool {
	return c.MaxRows != nil && c.EstimatedPoints() > *c.MaxRows
}

// TickPeriod is the fixed simulation step in seconds.
func (c Config) TickPeriod() float64 {
	return 1.0 / float64(c.SampleRateHz)
}

// OutputName is the base file name shared by a run's exports.
func (c Config) OutputName() string {
	return fmt.Sprintf("%s_%dhz_%ds", c.LaunchID, c.SampleRateHz, c.DurationS)
}

// Reading is one channel sample.
type Reading struct {
	Timestamp time.Time
	ElapsedMS uint64 // time since launch, derived from the tick index only
	Channel   sensor.Channel
	Value     sensor.Value
}

// Dataset is the full in-memory output of one run. It is produced once by
// the generator and only read afterwards.
type Dataset struct {
	Readings   []Reading
	Config     Config
	LaunchTime time.Time
}

// Len returns the number of readings.
func (d *Dataset) Len() int { return len(d.Readings) }

// Empty reports whether the dataset holds no readings.
func (d *Dataset) Empty() bool { return len(d.Readings) == 0 }

// First returns the first reading, if any.
func (d *Dataset) First() (Reading, bool) {
	if len(d.Readings) == 0 {
		return Reading{}, false
	}
	return d.Readings[0], true
}

// Ticks returns the number of ticks represented in the dataset.
func (d *Dataset) Ticks() int {
	return len(d.Readings) / sensor.Count
}
