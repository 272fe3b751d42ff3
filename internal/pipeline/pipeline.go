// Package pipeline runs one generation followed by the configured exports.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/star/telemetrygen/internal/export"
	"github.com/star/telemetrygen/internal/generator"
	"github.com/star/telemetrygen/internal/metrics"
	"github.com/star/telemetrygen/internal/progress"
	"github.com/star/telemetrygen/internal/status"
	"github.com/star/telemetrygen/internal/telemetry"
	"github.com/star/telemetrygen/internal/tracing"
)

// Options describes one pipeline run.
type Options struct {
	Config      telemetry.Config
	OutputDir   string
	VehicleType string
	EngineType  string

	// Influx enables the InfluxDB export when non-nil.
	Influx *export.InfluxConfig
	// InfluxWriter replaces the InfluxDB client. Only used with Influx set.
	InfluxWriter export.LineWriter

	Progress progress.Reporter
	Status   *status.Store
	Clock    func() time.Time
}

// Result is what a successful run produced.
type Result struct {
	RunID        string
	Dataset      *telemetry.Dataset
	MetadataPath string
	ParquetPath  string
	Influx       *export.BatchReport
}

// Run generates the dataset and exports it: Parquet, then the CSV
// metadata, then InfluxDB when configured. The first failing step ends the
// run; files already written are left in place and the partial Result is
// returned with the error.
func Run(ctx context.Context, opts Options, logger *slog.Logger) (*Result, error) {
	if opts.Progress == nil {
		opts.Progress = progress.Noop{}
	}
	if opts.Status == nil {
		opts.Status = status.NewStore()
	}

	res := &Result{RunID: uuid.NewString()}
	logger = logger.With("run_id", res.RunID, "launch_id", opts.Config.LaunchID)

	ctx, span := tracing.Tracer().Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run.id", res.RunID),
		attribute.String("launch.id", opts.Config.LaunchID),
		attribute.Int64("sample_rate_hz", int64(opts.Config.SampleRateHz)),
		attribute.Int64("duration_s", int64(opts.Config.DurationS)),
	))
	defer span.End()

	opts.Status.Set(&status.Run{
		ID:        res.RunID,
		LaunchID:  opts.Config.LaunchID,
		Phase:     status.PhaseGenerating,
		StartedAt: time.Now().UTC(),
		Ticks:     opts.Config.Ticks(),
	})

	err := run(ctx, opts, res, logger)
	now := time.Now().UTC()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		opts.Status.Update(func(r *status.Run) {
			r.Phase = status.PhaseFailed
			r.Error = err.Error()
			r.FinishedAt = &now
		})
		return res, err
	}

	opts.Status.Update(func(r *status.Run) {
		r.Phase = status.PhaseDone
		r.Step = ""
		r.FinishedAt = &now
	})
	logger.Info("run complete",
		"readings", humanize.Comma(int64(res.Dataset.Len())),
		"parquet_path", res.ParquetPath,
		"metadata_path", res.MetadataPath,
	)
	return res, nil
}

func run(ctx context.Context, opts Options, res *Result, logger *slog.Logger) error {
	var genOpts []generator.Option
	genOpts = append(genOpts, generator.WithProgress(opts.Progress))
	if opts.Clock != nil {
		genOpts = append(genOpts, generator.WithClock(opts.Clock))
	}
	gen, err := generator.New(opts.Config, logger, genOpts...)
	if err != nil {
		return err
	}

	err = step(ctx, "generate", func(ctx context.Context) error {
		ds, err := gen.Generate(ctx)
		if err != nil {
			return err
		}
		res.Dataset = ds
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("readings", ds.Len()))
		return nil
	})
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	opts.Status.Update(func(r *status.Run) {
		r.Phase = status.PhaseExporting
		r.Readings = res.Dataset.Len()
	})

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", opts.OutputDir, err)
	}
	name := opts.Config.OutputName()

	pq := export.NewParquet(opts.OutputDir, logger, opts.Progress)
	err = exportStep(ctx, opts.Status, "parquet", func(context.Context) error {
		path, err := pq.Export(res.Dataset, name)
		res.ParquetPath = path
		return err
	})
	if err != nil {
		return fmt.Errorf("parquet export: %w", err)
	}
	opts.Status.Update(func(r *status.Run) { r.ParquetPath = res.ParquetPath })

	meta := export.NewCSVMetadata(opts.OutputDir)
	if opts.VehicleType != "" {
		meta.VehicleType = opts.VehicleType
	}
	if opts.EngineType != "" {
		meta.EngineType = opts.EngineType
	}
	err = exportStep(ctx, opts.Status, "csv", func(context.Context) error {
		path, err := meta.Export(res.Dataset, name)
		res.MetadataPath = path
		return err
	})
	if err != nil {
		return fmt.Errorf("metadata export: %w", err)
	}
	opts.Status.Update(func(r *status.Run) { r.MetadataPath = res.MetadataPath })

	if opts.Influx == nil {
		return nil
	}

	influx, err := newInflux(opts, logger)
	if err != nil {
		return err
	}
	defer influx.Close()

	var report export.BatchReport
	err = exportStep(ctx, opts.Status, "influx", func(ctx context.Context) error {
		var err error
		report, err = influx.Export(ctx, res.Dataset)
		return err
	})
	res.Influx = &report
	opts.Status.Update(func(r *status.Run) {
		r.InfluxBatches = report.Batches
		r.Committed = report.Committed
	})
	if err != nil {
		return fmt.Errorf("influx export: %w", err)
	}
	return nil
}

func newInflux(opts Options, logger *slog.Logger) (*export.Influx, error) {
	if opts.InfluxWriter != nil {
		if err := opts.Influx.Validate(); err != nil {
			return nil, fmt.Errorf("invalid influx config: %w", err)
		}
		return export.NewInfluxWriter(opts.InfluxWriter, *opts.Influx, logger, opts.Progress), nil
	}
	return export.NewInflux(*opts.Influx, logger, opts.Progress)
}

// step runs fn inside a child span named after the step.
func step(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := tracing.Tracer().Start(ctx, "pipeline."+name)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// exportStep is step plus export timing and status reporting.
func exportStep(ctx context.Context, st *status.Store, exporter string, fn func(context.Context) error) error {
	st.Update(func(r *status.Run) { r.Step = exporter })
	start := time.Now()
	err := step(ctx, "export."+exporter, fn)
	metrics.RecordExport(exporter, time.Since(start), err)
	return err
}
