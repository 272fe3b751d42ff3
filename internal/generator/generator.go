// Package generator runs the flight simulation tick by tick and fans each
// tick out into one reading per sensor channel.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/star/telemetrygen/internal/flight"
	"github.com/star/telemetrygen/internal/metrics"
	"github.com/star/telemetrygen/internal/noise"
	"github.com/star/telemetrygen/internal/progress"
	"github.com/star/telemetrygen/internal/sensor"
	"github.com/star/telemetrygen/internal/telemetry"
)

const (
	// cancelCheckInterval is how many ticks run between context checks.
	cancelCheckInterval = 1024
	// progressInterval is how many ticks run between progress updates.
	progressInterval = 1000
)

// Option configures a Generator.
type Option func(*Generator)

// WithProgress sets the progress reporter. The default reports nothing.
func WithProgress(r progress.Reporter) Option {
	return func(g *Generator) { g.progress = r }
}

// WithClock overrides the source of the launch time.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// Generator produces a telemetry.Dataset from a validated Config.
type Generator struct {
	cfg      telemetry.Config
	logger   *slog.Logger
	progress progress.Reporter
	now      func() time.Time
}

// New validates cfg and returns a Generator for it.
func New(cfg telemetry.Config, logger *slog.Logger, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	g := &Generator{
		cfg:      cfg,
		logger:   logger,
		progress: progress.Noop{},
		now:      wallClock,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Parquet and line protocol both carry microseconds.
func wallClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Generate runs the whole simulation and returns the dataset. Each call
// starts a fresh noise stream from the configured seed, so repeated calls
// yield identical readings apart from the launch time.
func (g *Generator) Generate(ctx context.Context) (*telemetry.Dataset, error) {
	launch := g.now()
	ds := &telemetry.Dataset{Config: g.cfg, LaunchTime: launch}

	ticks := g.cfg.Ticks()
	if ticks == 0 {
		g.logger.Warn("zero ticks requested, returning empty dataset",
			"duration_s", g.cfg.DurationS,
			"sample_rate_hz", g.cfg.SampleRateHz,
		)
		return ds, nil
	}

	if g.cfg.ExceedsMaxRows() {
		g.logger.Warn("estimated readings exceed max rows",
			"estimated", g.cfg.EstimatedPoints(),
			"max_rows", *g.cfg.MaxRows,
		)
	}

	total := int(ticks)
	dt := g.cfg.TickPeriod()
	stream := noise.NewStream(g.cfg.Seed)
	jitter := noise.Jitter{StdDevUS: g.cfg.TimestampJitterUS}

	g.logger.Info("generating telemetry",
		"launch_id", g.cfg.LaunchID,
		"ticks", total,
		"tick_period_ms", dt*1000,
		"estimated_readings", humanize.Comma(int64(g.cfg.EstimatedPoints())),
	)

	start := time.Now()
	tracker := g.progress.Track("ticks", int64(total))
	defer tracker.Stop()

	ds.Readings = make([]telemetry.Reading, 0, total*sensor.Count)
	state := flight.InitialState()

	for i := 0; i < total; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("generation cancelled at tick %d: %w", i, err)
			}
		}
		if i%progressInterval == 0 {
			tracker.Set(int64(i))
		}

		elapsed := ElapsedMS(i, dt)
		base := launch.Add(time.Duration(elapsed) * time.Millisecond)
		sample := noise.Draw(stream)

		ds.Readings = FanOut(ds.Readings, state, sample, elapsed, base, jitter, stream)
		state = flight.Advance(state, i, total, dt)
	}

	tracker.Finish("data generation complete")
	duration := time.Since(start)
	metrics.RecordGeneration(len(ds.Readings), duration)

	g.logger.Info("telemetry dataset generated",
		"launch_id", g.cfg.LaunchID,
		"readings", humanize.Comma(int64(len(ds.Readings))),
		"duration_ms", duration.Milliseconds(),
		"noise_draws", stream.Draws(),
	)
	return ds, nil
}

// ElapsedMS is the time since launch of a tick in whole milliseconds.
// It depends on the tick index only, never on jitter.
func ElapsedMS(tick int, dt float64) uint64 {
	return uint64(math.Round(float64(tick) * dt * 1000.0))
}

// FanOut appends one reading per channel, in sensor.All order, to dst.
// Every reading shares elapsed but gets its own jittered timestamp.
func FanOut(dst []telemetry.Reading, st flight.State, n noise.Sample, elapsed uint64, base time.Time, j noise.Jitter, s *noise.Stream) []telemetry.Reading {
	for ch := sensor.Channel(0); int(ch) < sensor.Count; ch++ {
		dst = append(dst, telemetry.Reading{
			Timestamp: j.Apply(base, s),
			ElapsedMS: elapsed,
			Channel:   ch,
			Value:     sensor.Float(noise.Value(ch, st, n)),
		})
	}
	return dst
}
