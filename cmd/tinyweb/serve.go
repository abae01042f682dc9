package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/jpalmerr/tinyweb"
	"github.com/jpalmerr/tinyweb/config"
	"github.com/jpalmerr/tinyweb/internal/metrics"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use at the given level name.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
	})), nil
}

// serveCmd starts the web server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the tinyweb server.

The server will:
  - Load configuration from the given file (YAML or UCI), falling back
    to built-in defaults if it is missing or cannot be parsed
  - Start the configured number of workers
  - Serve files from the document root on the listen address

The server runs until interrupted (Ctrl+C) or receives SIGTERM. Queued
connections are finished before it exits.

Example:
  tinyweb serve
  tinyweb serve -c tinyweb.yaml --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", config.DefaultPath, "path to config file (YAML or UCI)")
	serveCmd.Flags().String("log-level", "info", "log level: debug, info, warn or error")
}

func runServe(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetString("log-level")
	logger, err := newLogger(os.Stderr, level)
	if err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg := config.LoadOrDefault(configFile, logger)

	logger.Info("config loaded",
		"listen", cfg.Listen,
		"document_root", cfg.DocumentRoot,
		"workers", cfg.Workers,
	)

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := setupMetrics(ctx, cfg.Metrics, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownMetrics(sctx); err != nil {
			logger.Warn("metrics shutdown failed", "error", err)
		}
	}()

	tw, err := tinyweb.New(serveOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("failed to create tinyweb: %w", err)
	}

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- tw.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for queued connections with a timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}

// serveOptions maps a loaded config onto tinyweb options.
func serveOptions(cfg *config.Config, logger *slog.Logger) []tinyweb.Option {
	return []tinyweb.Option{
		tinyweb.WithListenAddr(cfg.Listen),
		tinyweb.WithDocumentRoot(cfg.DocumentRoot),
		tinyweb.WithWorkers(cfg.Workers),
		tinyweb.WithQueueLimit(cfg.QueueLimit),
		tinyweb.WithSleepDelay(cfg.SleepDelay.Duration()),
		tinyweb.WithReadTimeout(cfg.ReadTimeout.Duration()),
		tinyweb.WithIndexDocument(cfg.IndexDocument),
		tinyweb.WithNotFoundDocument(cfg.NotFoundDocument),
		tinyweb.WithSleepDocument(cfg.SleepDocument),
		tinyweb.WithMeter(otel.GetMeterProvider().Meter(metrics.ScopeName)),
		tinyweb.WithLogger(logger),
	}
}

// setupMetrics installs a global meter provider that pushes to the
// configured OTLP endpoint. With no endpoint it is a no-op.
func setupMetrics(ctx context.Context, cfg config.MetricsConfig, logger *slog.Logger) (func(context.Context) error, error) {
	if cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(cfg.Interval.Duration()),
		)),
	)
	otel.SetMeterProvider(provider)

	logger.Info("metrics export enabled",
		"endpoint", cfg.OTLPEndpoint,
		"interval", cfg.Interval.Duration().String(),
	)
	return provider.Shutdown, nil
}
