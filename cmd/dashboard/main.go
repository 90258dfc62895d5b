package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-vis/internal/api/http"
	"github.com/i474232898/weather-vis/internal/app"
	"github.com/i474232898/weather-vis/internal/config"
	"github.com/i474232898/weather-vis/internal/observability"
	"github.com/i474232898/weather-vis/internal/refresh"
	"github.com/i474232898/weather-vis/internal/scheduler"
	"github.com/i474232898/weather-vis/internal/weather"
)

const serviceName = "weather-vis"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, storeCloser, err := app.OpenTableStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer storeCloser.Close()

	if cfg.StorageBackend == "memory" && !cfg.IngestEnabled {
		logger.Warn("memory storage without INGEST_ENABLED never receives a table")
	}

	// Table refresher: one load up front, then every RefreshInterval.
	refresher := refresh.New(store, cfg.RefreshInterval, logger, metrics, refresh.WithTimeout(cfg.RefreshTimeout))
	if err := refresher.Refresh(ctx); err != nil {
		logger.Warn("initial table load failed; serving without data until the next refresh",
			zap.String("location", store.Location()), zap.Error(err))
	}
	go refresher.Run(ctx)

	// Optional in-process ingestion, refreshing the served table after
	// each stored run.
	if cfg.IngestEnabled {
		svc, notifyCloser, err := app.NewIngestService(cfg, store, logger, metrics)
		if err != nil {
			logger.Fatal("failed to build ingestion service", zap.Error(err))
		}
		defer notifyCloser.Close()

		sched := scheduler.New(svc, cfg.IngestInterval, logger, func(res weather.Result, err error) {
			if err == nil {
				_ = refresher.Refresh(ctx)
			}
		})
		if err := sched.Start(); err != nil {
			logger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	server := httpapi.NewApp(serviceName, logger)

	// Global middleware
	server.Use(fiberlogger.New())
	server.Use(recover.New())

	httpapi.RegisterRoutes(server, refresher, httpapi.Options{
		ServiceName: serviceName,
		DefaultCity: cfg.DefaultCity,
		Metrics:     metrics,
		History:     store,
	})

	// Start server with graceful shutdown
	go func() {
		logger.Info("listening", zap.String("port", cfg.Port), zap.String("table", store.Location()))
		if err := server.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
}
