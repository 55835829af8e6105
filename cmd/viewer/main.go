package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/geosight-viewer/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/geosight-viewer/internal/adapter/kafka"
	"github.com/couchcryptid/geosight-viewer/internal/adapter/seismic"
	"github.com/couchcryptid/geosight-viewer/internal/config"
	"github.com/couchcryptid/geosight-viewer/internal/observability"
	"github.com/couchcryptid/geosight-viewer/internal/viewer"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := seismic.NewClient(cfg.APIBaseURL, cfg.APITimeout, metrics, logger)

	deps := viewer.Deps{
		Events:    client,
		Clusters:  client,
		Metrics:   metrics,
		Logger:    logger,
		CacheSize: cfg.DetailCacheSize,
	}

	// Activity stream is feature-flagged via ACTIVITY_ENABLED.
	var activity *kafkaadapter.ActivityWriter
	if cfg.ActivityEnabled {
		activity = kafkaadapter.NewActivityWriter(cfg, metrics, logger)
		deps.Activity = activity
		logger.Info("activity stream enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaActivityTopic)
	} else {
		logger.Info("activity stream disabled")
	}

	sessions := viewer.NewRegistry(deps, cfg.SessionIdleTimeout, client)
	srv := httpadapter.NewServer(cfg, sessions, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Expire idle sessions.
	reaperDone := make(chan struct{})
	go func() {
		defer close(reaperDone)
		sessions.Run(ctx)
	}()

	logger.Info("viewer started",
		"api_base_url", cfg.APIBaseURL,
		"default_mode", cfg.DefaultMode,
		"detail_cache_size", cfg.DetailCacheSize,
		"session_idle_timeout", cfg.SessionIdleTimeout,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	<-reaperDone
	if activity != nil {
		if err := activity.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
