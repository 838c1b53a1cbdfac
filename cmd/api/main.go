package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/couchcryptid/diabetes-care-api/internal/adapter/arcgis"
	"github.com/couchcryptid/diabetes-care-api/internal/adapter/breaker"
	"github.com/couchcryptid/diabetes-care-api/internal/adapter/fingertips"
	httpadapter "github.com/couchcryptid/diabetes-care-api/internal/adapter/http"
	"github.com/couchcryptid/diabetes-care-api/internal/adapter/snapshot"
	"github.com/couchcryptid/diabetes-care-api/internal/cache"
	"github.com/couchcryptid/diabetes-care-api/internal/config"
	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/couchcryptid/diabetes-care-api/internal/observability"
	"github.com/couchcryptid/diabetes-care-api/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	props := arcgis.Properties{Code: cfg.BoundaryCodeProperty, Name: cfg.BoundaryNameProperty}

	var (
		indicators domain.IndicatorSource
		boundaries domain.BoundarySource
	)
	if cfg.DataDir != "" {
		src := snapshot.NewSource(cfg.DataDir, props, logger, metrics)
		indicators, boundaries = src, src
		logger.Info("serving from snapshot", "dir", cfg.DataDir)
	} else {
		indicators = fingertips.NewClient(cfg.FingertipsBaseURL, cfg.UpstreamTimeout, logger, metrics)
		boundaries = arcgis.NewClient(cfg.BoundariesURL, props, cfg.UpstreamTimeout, logger, metrics)
		logger.Info("serving from upstream", "fingertips", cfg.FingertipsBaseURL, "upstream_timeout", cfg.UpstreamTimeout)
	}

	// Readiness fails while any breaker is open.
	var ready breaker.Readiness
	if cfg.BreakerEnabled {
		settings := breaker.Settings{MaxFailures: cfg.BreakerMaxFailures, OpenTimeout: cfg.BreakerOpenTimeout}
		ib := breaker.NewIndicatorSource(indicators, settings, logger, metrics)
		bb := breaker.NewBoundarySource(boundaries, settings, logger, metrics)
		indicators, boundaries = ib, bb
		ready = breaker.Readiness{ib, bb}
	}

	store := cache.NewStore(indicators, boundaries, clockwork.NewRealClock(), logger, metrics)
	reports := report.NewService(store, logger, metrics)

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:               cfg.HTTPAddr,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRequests:  cfg.RateLimitRequests,
		RateLimitWindow:    cfg.RateLimitWindow,
		WriteTimeout:       cfg.WriteTimeout(),
	}, reports, store, ready, logger, metrics)

	hook := &sutureslog.Handler{Logger: logger}
	sup := suture.New("diabetes-care-api", suture.Spec{
		EventHook: hook.MustHook(),
		Timeout:   cfg.ShutdownTimeout,
	})
	sup.Add(httpadapter.NewService(srv, cfg.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("supervisor stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
