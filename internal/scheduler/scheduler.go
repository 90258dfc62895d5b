package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-vis/internal/weather"
)

// Runner is one ingestion run.
type Runner interface {
	Run(ctx context.Context) (weather.Result, error)
}

// ResultFunc receives the outcome of every run.
type ResultFunc func(weather.Result, error)

// Scheduler periodically runs the ingestion job. A run still in progress
// when the next tick fires is not overlapped.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	logger    *zap.Logger
	onResult  ResultFunc

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Scheduler. onResult may be nil.
func New(runner Runner, interval time.Duration, logger *zap.Logger, onResult ResultFunc) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		interval:  interval,
		logger:    logger,
		onResult:  onResult,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run starts immediately.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return errors.New("scheduler: interval must be positive")
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.runOnce)
	if err != nil {
		return err
	}

	s.logger.Info("ingestion scheduled", zap.Duration("every", s.interval))
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) runOnce() {
	s.logger.Debug("scheduler: running ingestion job")
	res, err := s.runner.Run(s.ctx)
	if s.onResult != nil {
		s.onResult(res, err)
	}
}

// Stop stops the scheduler, cancels a run in progress and cancels any
// future jobs.
func (s *Scheduler) Stop() {
	s.cancel()
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
