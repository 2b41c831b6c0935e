// Command integrationhealth runs the sample service: a books API backed by
// MongoDB, a pokeapi proxy cached in Redis, and the /health endpoint that
// reports how those integrations are doing.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/integrationhealth/config"
	"github.com/jonwraymond/integrationhealth/observe"
)

func main() {
	configPath := flag.String("config", "", "path to config file; empty runs with defaults")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "integrationhealth:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsHandler http.Handler
	if cfg.Observe.Metrics.Enabled && cfg.Observe.Metrics.Exporter == "prometheus" {
		promReg := prometheus.NewRegistry()
		promReg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		cfg.Observe.Metrics.Registerer = promReg
		metricsHandler = promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return err
	}
	logger := obs.Logger()

	a, err := newApp(ctx, cfg, obs, metricsHandler)
	if err != nil {
		_ = obs.Shutdown(context.Background())
		return err
	}

	if configPath != "" {
		go func() {
			if err := config.Watch(ctx, configPath, logger, a.reload); err != nil {
				logger.Error(ctx, "config watcher stopped", observe.Field{Key: "error", Value: err})
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "http server listening", observe.Field{Key: "addr", Value: cfg.Server.Addr})
		serveErr <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info(context.Background(), "shutting down")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	errs := []error{runErr}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	errs = append(errs, a.Close(shutdownCtx), obs.Shutdown(shutdownCtx))
	return errors.Join(errs...)
}
