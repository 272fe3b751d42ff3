package main

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/star/telemetrygen/internal/config"
	"github.com/star/telemetrygen/internal/pipeline"
	"github.com/star/telemetrygen/internal/progress"
	"github.com/star/telemetrygen/internal/status"
	"github.com/star/telemetrygen/internal/tracing"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate telemetry and write Parquet and CSV metadata files",
	RunE:  runGenerate,
}

var influxCmd = &cobra.Command{
	Use:   "influxdb",
	Short: "Generate telemetry and also push it to InfluxDB",
	RunE:  runInflux,
}

// runFlags are shared by generate and influxdb.
type runFlags struct {
	duration        uint64
	khz             float64
	launchID        string
	seed            uint64
	disableProgress bool
	maxRows         uint64
	jitter          float64
	outputDir       string
	statusAddr      string
	hold            bool
}

type influxFlags struct {
	url       string
	token     string
	org       string
	bucket    string
	batchSize int
}

var (
	genFlags    runFlags
	influxRun   runFlags
	influxConn  influxFlags
	defaultConf = config.Default()
)

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	d := defaultConf.Run
	cmd.Flags().Uint64Var(&f.duration, "duration", d.DurationS, "flight duration in seconds")
	cmd.Flags().Float64Var(&f.khz, "khz", float64(d.SampleRateHz)/1000, "sample rate in kHz")
	cmd.Flags().StringVar(&f.launchID, "launch-id", d.LaunchID, "launch identifier")
	cmd.Flags().Uint64Var(&f.seed, "seed", d.Seed, "random seed")
	cmd.Flags().BoolVar(&f.disableProgress, "disable-progress", false, "disable progress bars")
	cmd.Flags().Uint64Var(&f.maxRows, "max-rows", 0, "warn when a run would exceed this many readings (0 = no limit)")
	cmd.Flags().Float64Var(&f.jitter, "timestamp-jitter", d.TimestampJitterUS, "timestamp jitter std dev in microseconds")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", defaultConf.OutputDir, "directory for output files")
	cmd.Flags().StringVar(&f.statusAddr, "status-addr", "", "serve run status on this address (e.g. :8080)")
	cmd.Flags().BoolVar(&f.hold, "hold", false, "keep the status server running after the run until interrupted")
}

func init() {
	addRunFlags(generateCmd, &genFlags)
	addRunFlags(influxCmd, &influxRun)

	ic := defaultConf.InfluxConfig()
	influxCmd.Flags().StringVar(&influxConn.url, "url", ic.URL, "InfluxDB URL")
	influxCmd.Flags().StringVar(&influxConn.token, "token", "", "InfluxDB API token")
	influxCmd.Flags().StringVar(&influxConn.org, "org", ic.Org, "InfluxDB organisation")
	influxCmd.Flags().StringVar(&influxConn.bucket, "bucket", ic.Bucket, "InfluxDB bucket")
	influxCmd.Flags().IntVar(&influxConn.batchSize, "batch-size", ic.BatchSize, "readings per write batch")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(influxCmd)
}

// khzToHz converts a kHz flag value to a whole sample rate.
func khzToHz(khz float64) (uint64, error) {
	if khz <= 0 || math.IsNaN(khz) || math.IsInf(khz, 0) {
		return 0, fmt.Errorf("--khz must be positive, got %v", khz)
	}
	hz := math.Round(khz * 1000)
	if hz < 1 {
		return 0, fmt.Errorf("--khz %v rounds to 0 Hz", khz)
	}
	return uint64(hz), nil
}

// applyRunFlags overlays only the flags the user set.
func applyRunFlags(cmd *cobra.Command, f runFlags, cfg *config.Config) error {
	fs := cmd.Flags()
	if fs.Changed("duration") {
		cfg.Run.DurationS = f.duration
	}
	if fs.Changed("khz") {
		hz, err := khzToHz(f.khz)
		if err != nil {
			return err
		}
		cfg.Run.SampleRateHz = hz
	}
	if fs.Changed("launch-id") {
		cfg.Run.LaunchID = f.launchID
	}
	if fs.Changed("seed") {
		cfg.Run.Seed = f.seed
	}
	if fs.Changed("disable-progress") {
		cfg.DisableProgress = f.disableProgress
	}
	if fs.Changed("max-rows") {
		if f.maxRows == 0 {
			cfg.Run.MaxRows = nil
		} else {
			n := f.maxRows
			cfg.Run.MaxRows = &n
		}
	}
	if fs.Changed("timestamp-jitter") {
		cfg.Run.TimestampJitterUS = f.jitter
	}
	if fs.Changed("output-dir") {
		cfg.OutputDir = f.outputDir
	}
	if fs.Changed("status-addr") {
		cfg.Status.Addr = f.statusAddr
	}
	return nil
}

func applyInfluxFlags(cmd *cobra.Command, f influxFlags, cfg *config.Config) {
	fs := cmd.Flags()
	cfg.Influx.Enabled = true
	if fs.Changed("url") {
		cfg.Influx.URL = f.url
	}
	if fs.Changed("token") {
		cfg.Influx.Token = f.token
	}
	if fs.Changed("org") {
		cfg.Influx.Org = f.org
	}
	if fs.Changed("bucket") {
		cfg.Influx.Bucket = f.bucket
	}
	if fs.Changed("batch-size") {
		cfg.Influx.BatchSize = f.batchSize
	}
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, genFlags, cfg); err != nil {
		return err
	}
	return execute(cmd, cfg, genFlags.hold)
}

func runInflux(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, influxRun, cfg); err != nil {
		return err
	}
	applyInfluxFlags(cmd, influxConn, cfg)
	return execute(cmd, cfg, influxRun.hold)
}

func execute(cmd *cobra.Command, cfg *config.Config, hold bool) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	shutdownTracing, err := tracing.Setup(ctx, cfg.OtelEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()

	store := status.NewStore()
	stopServer, err := startStatusServer(cfg, logger, store)
	if err != nil {
		return err
	}
	defer stopServer()

	logger.Info("run config",
		"launch_id", cfg.Run.LaunchID,
		"duration_s", cfg.Run.DurationS,
		"sample_rate_hz", cfg.Run.SampleRateHz,
		"seed", cfg.Run.Seed,
		"timestamp_jitter_us", cfg.Run.TimestampJitterUS,
		"estimated_readings", humanize.Comma(int64(cfg.Run.EstimatedPoints())),
		"output_dir", cfg.OutputDir,
		"influx_enabled", cfg.Influx.Enabled,
	)

	opts := pipeline.Options{
		Config:      cfg.Run,
		OutputDir:   cfg.OutputDir,
		VehicleType: cfg.VehicleType,
		EngineType:  cfg.EngineType,
		Progress:    progress.New(os.Stderr, cfg.DisableProgress),
		Status:      store,
	}
	if cfg.Influx.Enabled {
		ic := cfg.InfluxConfig()
		opts.Influx = &ic
	}

	res, err := pipeline.Run(ctx, opts, logger)
	printResult(cmd.OutOrStdout(), res)
	if err != nil {
		return err
	}

	if hold && cfg.Status.Addr != "" {
		logger.Info("run finished, holding status server until interrupted", "addr", cfg.Status.Addr)
		<-ctx.Done()
	}
	return nil
}

// printResult reports what a run produced. It is also called for failed
// runs so files written before the failure are listed.
func printResult(w io.Writer, res *pipeline.Result) {
	if res == nil || res.Dataset == nil {
		return
	}
	fmt.Fprintf(w, "generated %s readings (%s ticks)\n",
		humanize.Comma(int64(res.Dataset.Len())), humanize.Comma(int64(res.Dataset.Ticks())))
	if res.ParquetPath != "" {
		if fi, err := os.Stat(res.ParquetPath); err == nil {
			fmt.Fprintf(w, "parquet:  %s (%s)\n", res.ParquetPath, humanize.Bytes(uint64(fi.Size())))
		}
	}
	if res.MetadataPath != "" {
		fmt.Fprintf(w, "metadata: %s\n", res.MetadataPath)
	}
	if res.Influx != nil {
		fmt.Fprintf(w, "influx:   %d/%d batches committed\n", res.Influx.Committed, res.Influx.Batches)
	}
}
