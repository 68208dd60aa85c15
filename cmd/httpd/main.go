// Command httpd serves the sentiment HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/starwatch/sentiment/internal/api"
	"github.com/starwatch/sentiment/internal/bootstrap"
	"github.com/starwatch/sentiment/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	app, err := bootstrap.New(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	server := api.NewServer(app.Handler, api.ServerConfig{
		Port:  app.Config.Service.Port,
		Debug: app.Config.Service.Debug,
	}, app.Registry, app.Log)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.Log.Error("Server error", logger.Error(err))
		os.Exit(1)
	case sig := <-shutdown:
		app.Log.Info("Shutdown signal received", logger.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), bootstrap.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			app.Log.Error("Graceful shutdown failed", logger.Error(err))
			os.Exit(1)
		}

		app.Log.Info("Server stopped gracefully")
	}
}
