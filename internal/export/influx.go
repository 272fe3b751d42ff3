package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/star/telemetrygen/internal/metrics"
	"github.com/star/telemetrygen/internal/progress"
	"github.com/star/telemetrygen/internal/telemetry"
)

// LineWriter sends line protocol records to a time-series store and waits
// for the write to complete. influxdb-client-go's api.WriteAPIBlocking
// satisfies it.
type LineWriter interface {
	WriteRecord(ctx context.Context, line ...string) error
}

// InfluxConfig holds the connection and batching settings for InfluxDB.
type InfluxConfig struct {
	URL         string `yaml:"url" env:"URL"`
	Token       string `yaml:"token" env:"TOKEN"`
	Org         string `yaml:"org" env:"ORG"`
	Bucket      string `yaml:"bucket" env:"BUCKET"`
	BatchSize   int    `yaml:"batch_size" env:"BATCH_SIZE"`
	Measurement string `yaml:"measurement" env:"MEASUREMENT"`
}

// DefaultInfluxConfig returns settings for a local InfluxDB 2.x.
func DefaultInfluxConfig() InfluxConfig {
	return InfluxConfig{
		URL:         "http://localhost:8086",
		Org:         "my_org",
		Bucket:      "my_bucket",
		BatchSize:   5000,
		Measurement: DefaultMeasurement,
	}
}

// Validate checks the settings needed to connect and batch.
func (c InfluxConfig) Validate() error {
	if c.URL == "" {
		return errors.New("influx url is required")
	}
	if c.Org == "" || c.Bucket == "" {
		return errors.New("influx org and bucket are required")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: %d", telemetry.ErrInvalidBatchSize, c.BatchSize)
	}
	return nil
}

// BatchError reports the batch that failed. Batches before it were fully
// written and are not rolled back.
type BatchError struct {
	Batch     int // 1-based
	Committed int
	Total     int
	Err       error
}

// Error reports the failed batch and how many were committed before it.
func (e *BatchError) Error() string {
	return fmt.Sprintf("influx batch %d/%d failed after %d committed: %v", e.Batch, e.Total, e.Committed, e.Err)
}

// Unwrap returns the write error.
func (e *BatchError) Unwrap() error { return e.Err }

// BatchReport summarises an InfluxDB export.
type BatchReport struct {
	Batches   int `json:"batches"`
	Readings  int `json:"readings"`
	Committed int `json:"committed"`
}

// Influx writes a dataset to InfluxDB in fixed-size, strictly sequential
// batches. A failed batch stops the export; nothing is retried.
type Influx struct {
	writer      LineWriter
	client      influxdb2.Client
	measurement string
	batchSize   int
	logger      *slog.Logger
	progress    progress.Reporter
}

// NewInflux connects an exporter to the InfluxDB described by cfg.
func NewInflux(cfg InfluxConfig, logger *slog.Logger, r progress.Reporter) (*Influx, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid influx config: %w", err)
	}
	opts := influxdb2.DefaultOptions().SetPrecision(time.Microsecond)
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	e := NewInfluxWriter(client.WriteAPIBlocking(cfg.Org, cfg.Bucket), cfg, logger, r)
	e.client = client
	return e, nil
}

// NewInfluxWriter returns an exporter that sends batches to w.
func NewInfluxWriter(w LineWriter, cfg InfluxConfig, logger *slog.Logger, r progress.Reporter) *Influx {
	if r == nil {
		r = progress.Noop{}
	}
	measurement := cfg.Measurement
	if measurement == "" {
		measurement = DefaultMeasurement
	}
	return &Influx{
		writer:      w,
		measurement: measurement,
		batchSize:   cfg.BatchSize,
		logger:      logger,
		progress:    r,
	}
}

// Ping checks that the server is reachable. Exporters built on a bare
// LineWriter have nothing to ping and always succeed.
func (e *Influx) Ping(ctx context.Context) error {
	if e.client == nil {
		return nil
	}
	ok, err := e.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("ping influx: %w", err)
	}
	if !ok {
		return errors.New("ping influx: server not ready")
	}
	return nil
}

// Close releases the underlying client, if any.
func (e *Influx) Close() {
	if e.client != nil {
		e.client.Close()
	}
}

// BatchCount is the number of batches n readings are split into.
func BatchCount(n, batchSize int) int {
	if n == 0 || batchSize <= 0 {
		return 0
	}
	return (n + batchSize - 1) / batchSize
}

// Export sends every reading in order. The context is only consulted
// between batches; a batch in flight is always awaited.
func (e *Influx) Export(ctx context.Context, ds *telemetry.Dataset) (BatchReport, error) {
	report := BatchReport{Readings: ds.Len()}
	if ds.Empty() {
		e.logger.Warn("no readings to export, skipping influx")
		return report, nil
	}
	if e.batchSize <= 0 {
		return report, fmt.Errorf("%w: %d", telemetry.ErrInvalidBatchSize, e.batchSize)
	}

	total := BatchCount(ds.Len(), e.batchSize)
	report.Batches = total
	enc := NewLineEncoder(e.measurement, ds.Config.LaunchID)
	lines := make([]string, 0, min(e.batchSize, ds.Len()))

	e.logger.Info("exporting to influx",
		"launch_id", ds.Config.LaunchID,
		"readings", ds.Len(),
		"batches", total,
		"batch_size", e.batchSize,
	)
	tracker := e.progress.Track("batches", int64(total))
	defer tracker.Stop()

	for b := 0; b < total; b++ {
		fail := func(err error) (BatchReport, error) {
			metrics.RecordInfluxBatch(false)
			e.logger.Error("influx batch failed",
				"batch", b+1,
				"total", total,
				"committed", report.Committed,
				"error", err,
			)
			return report, &BatchError{Batch: b + 1, Committed: report.Committed, Total: total, Err: err}
		}

		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		lo := b * e.batchSize
		hi := min(lo+e.batchSize, ds.Len())
		lines = lines[:0]
		for _, r := range ds.Readings[lo:hi] {
			line, err := enc.Encode(r)
			if err != nil {
				return fail(err)
			}
			lines = append(lines, line)
		}

		if err := e.writer.WriteRecord(ctx, lines...); err != nil {
			return fail(err)
		}
		report.Committed++
		metrics.RecordInfluxBatch(true)
		tracker.Set(int64(report.Committed))
		e.logger.Debug("influx batch written", "batch", b+1, "total", total, "readings", hi-lo)
	}

	tracker.Finish("influx export complete")
	e.logger.Info("exported to influx", "readings", ds.Len(), "batches", total)
	return report, nil
}
