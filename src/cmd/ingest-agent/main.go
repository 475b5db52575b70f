// Package main provides the standalone ingest agent binary.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"xcreport/src/config"
	"xcreport/src/ingest"
	"xcreport/src/logger"
	"xcreport/src/metrics"
	"xcreport/src/pipeline"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Verify we're in distributed mode
	if !cfg.UsesRedpanda() {
		fmt.Fprintf(os.Stderr, "ERROR: %s environment variable is required for ingest agent\n", config.EnvBrokers)
		fmt.Fprintf(os.Stderr, "Example: export %s=localhost:19092\n", config.EnvBrokers)
		os.Exit(1)
	}

	log := logger.NewConsoleLogger(cfg.Debug)
	log.Info("Starting xcreport Ingest Agent")
	log.Info("Redpanda brokers: %v", cfg.RedpandaBrokers)

	// Setup context with cancellation on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := pipeline.Open(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open backend: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	reg := prom.NewRegistry()
	if cfg.MetricsAddr != "" {
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	agent := ingest.NewAgent(backend.Typed(), backend.Store, log,
		ingest.WithRecorder(recorder),
		ingest.WithGroupID(cfg.ConsumerGroup),
		ingest.WithNotifications(),
		ingest.WithEventStream(),
		ingest.WithRunTTL(cfg.RunTTL),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Ingest agent started, waiting for log chunks...")
		if err := agent.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("agent: %w", err)
		}
		return nil
	})

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("Serving metrics on %s/metrics", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Agent error: %v\n", err)
		os.Exit(1)
	}

	log.Info("Ingest agent stopped")
}

func metricsMux(reg *prom.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}
