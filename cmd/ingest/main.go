// Command ingest fetches hourly forecasts for the configured cities and
// stores them as the dashboard's observation table.
package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/i474232898/weather-vis/internal/app"
	"github.com/i474232898/weather-vis/internal/config"
	"github.com/i474232898/weather-vis/internal/observability"
	"github.com/i474232898/weather-vis/internal/scheduler"
	"github.com/i474232898/weather-vis/internal/weather"
)

// response mirrors a function-handler reply: a status code and the run
// summary.
type response struct {
	StatusCode int            `json:"statusCode"`
	Body       weather.Result `json:"body"`
}

func main() {
	once := pflag.Bool("once", true, "run a single ingestion and exit")
	every := pflag.Duration("every", 0, "run repeatedly at this interval (overrides --once)")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, storeCloser, err := app.OpenTableStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	svc, notifyCloser, err := app.NewIngestService(cfg, store, logger, observability.NewMetrics())
	if err != nil {
		logger.Fatal("failed to build ingestion service", zap.Error(err))
	}
	closers := app.Closers{storeCloser, notifyCloser}
	defer closers.Close()

	if *every <= 0 && *once {
		res, err := svc.Run(ctx)
		writeResponse(os.Stdout, res, err)
		if err != nil {
			closers.Close()
			os.Exit(1)
		}
		return
	}

	interval := *every
	if interval <= 0 {
		interval = cfg.IngestInterval
	}
	sched := scheduler.New(svc, interval, logger, func(res weather.Result, err error) {
		writeResponse(os.Stdout, res, err)
	})
	if err := sched.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	<-ctx.Done()
	sched.Stop()
}

func writeResponse(w io.Writer, res weather.Result, err error) {
	out := response{StatusCode: http.StatusOK, Body: res}
	if err != nil {
		out.StatusCode = http.StatusInternalServerError
	}
	enc := json.NewEncoder(w)
	_ = enc.Encode(out)
}
