// Command telemetrygen generates synthetic rocket flight telemetry and
// exports it to Parquet, CSV metadata and InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/star/telemetrygen/internal/api"
	"github.com/star/telemetrygen/internal/auth"
	"github.com/star/telemetrygen/internal/config"
	"github.com/star/telemetrygen/internal/status"
)

var rootCmd = &cobra.Command{
	Use:   "telemetrygen",
	Short: "Rocket flight telemetry generator",
	Long: `telemetrygen simulates a rocket flight through five mission phases and
produces reproducible, high-rate readings for 29 sensor channels. Readings are
written to a Parquet file with a CSV metadata sidecar and can be pushed to
InfluxDB as line protocol.`,
	SilenceUsage: true,
}

var (
	configPath string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves file, env and the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func newLogger(level string) (*slog.Logger, error) {
	l, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l})), nil
}

// startStatusServer serves run status on cfg.Status.Addr until the
// returned stop function is called. With no address it does nothing.
func startStatusServer(cfg *config.Config, logger *slog.Logger, store *status.Store) (stop func(), err error) {
	if cfg.Status.Addr == "" {
		return func() {}, nil
	}

	authCfg := auth.Config{Enabled: cfg.Status.AuthEnabled, Token: cfg.Status.AuthToken}
	if err := authCfg.Validate(); err != nil {
		return nil, err
	}
	srv := api.NewServer(api.Config{
		Addr:       cfg.Status.Addr,
		Auth:       authCfg,
		TrustProxy: cfg.Status.TrustProxy,
	}, logger, store)

	l, err := net.Listen("tcp", cfg.Status.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Status.Addr, err)
	}

	go func() {
		logger.Info("starting status server", "addr", l.Addr().String(), "auth_enabled", authCfg.Enabled)
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status server error", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
			logger.Error("status server shutdown error", "error", err)
			return
		}
		logger.Info("status server stopped")
	}, nil
}
