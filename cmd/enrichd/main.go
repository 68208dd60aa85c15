// Command enrichd runs the enrichment worker: it polls for unenriched
// comments, scores them, and writes signals, discoveries, and review items.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starwatch/sentiment/internal/bootstrap"
	"github.com/starwatch/sentiment/internal/logger"
	"github.com/starwatch/sentiment/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	metricsAddr := flag.String("metrics-addr", ":9090", "address for the /metrics listener")
	flag.Parse()

	app, err := bootstrap.New(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	poller := pipeline.NewPoller(app.Runner, pipeline.PollerConfig{
		PollInterval: app.Config.Service.PollInterval,
	}, app.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := poller.Start(ctx); err != nil {
		app.Log.Fatal("Failed to start poller", logger.Error(err))
	}

	metricsServer := &http.Server{
		Addr:              *metricsAddr,
		Handler:           metricsMux(app),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Log.Error("Metrics listener failed", logger.Error(err))
		}
	}()

	app.Log.Info("Enrichment worker started",
		logger.Duration("poll_interval", app.Config.Service.PollInterval),
		logger.String("metrics_addr", *metricsAddr),
	)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown

	app.Log.Info("Shutdown signal received", logger.String("signal", sig.String()))
	cancel()
	poller.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), bootstrap.ShutdownTimeout)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		app.Log.Warn("Metrics listener shutdown failed", logger.Error(err))
	}

	app.Log.Info("Enrichment worker stopped")
}

func metricsMux(app *bootstrap.App) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
