// Package refresh keeps the process-wide observation table current by
// reloading it from storage on a fixed interval.
package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/i474232898/weather-vis/internal/observability"
	"github.com/i474232898/weather-vis/internal/observation"
)

// ErrNoData is reported while no table has been loaded successfully.
var ErrNoData = errors.New("no observation table loaded yet")

// Loader fetches the latest observation table.
type Loader interface {
	Load(ctx context.Context) (*observation.Table, error)
}

// Snapshot is an immutable view of a loaded table.
type Snapshot struct {
	Table    *observation.Table
	Version  int64
	LoadedAt time.Time
}

// Refresher owns the shared table reference. Readers call Current and
// always observe either nil or a fully built Snapshot; the pointer is only
// ever replaced, never mutated.
type Refresher struct {
	loader   Loader
	interval time.Duration
	timeout  time.Duration
	clock    clockwork.Clock
	logger   *zap.Logger
	metrics  *observability.Metrics

	// mu serializes Refresh so a slow load cannot replace a newer table.
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	version atomic.Int64
}

// Option customises a Refresher.
type Option func(*Refresher)

// WithClock replaces the real clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(r *Refresher) { r.clock = c }
}

// WithTimeout bounds each load. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Refresher) { r.timeout = d }
}

// New creates a Refresher that reloads every interval.
func New(loader Loader, interval time.Duration, logger *zap.Logger, metrics *observability.Metrics, opts ...Option) *Refresher {
	r := &Refresher{
		loader:   loader,
		interval: interval,
		timeout:  30 * time.Second,
		clock:    clockwork.NewRealClock(),
		logger:   logger,
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Current returns the latest snapshot, or nil before the first successful load.
func (r *Refresher) Current() *Snapshot {
	return r.current.Load()
}

// CheckReadiness reports ErrNoData until a table has been loaded.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if r.current.Load() == nil {
		return ErrNoData
	}
	return nil
}

// Refresh loads the table once. On failure the previous snapshot stays in
// place and the error is returned after being logged. Concurrent calls run
// one after another, each loading after the previous one has stored.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := r.clock.Now()
	table, err := r.loader.Load(ctx)
	r.metrics.RefreshDuration.Observe(r.clock.Since(start).Seconds())
	if err == nil && table == nil {
		err = errors.New("loader returned no table")
	}
	if err != nil {
		r.metrics.RefreshTotal.WithLabelValues("error").Inc()
		fields := []zap.Field{zap.Error(err)}
		if prev := r.current.Load(); prev != nil {
			fields = append(fields, zap.Int64("serving_version", prev.Version))
		}
		r.logger.Warn("table refresh failed; keeping previous table", fields...)
		return err
	}

	snap := &Snapshot{
		Table:    table,
		Version:  r.version.Inc(),
		LoadedAt: r.clock.Now().UTC(),
	}
	r.current.Store(snap)

	r.metrics.RefreshTotal.WithLabelValues("success").Inc()
	r.metrics.TableRows.Set(float64(table.Len()))
	r.metrics.TableVersion.Set(float64(snap.Version))
	r.logger.Info("table refreshed",
		zap.Int64("version", snap.Version),
		zap.Int("rows", table.Len()),
		zap.Int("cities", len(table.Cities())),
	)
	return nil
}

// Run refreshes on every tick until ctx is cancelled. Failed ticks are
// logged by Refresh and do not stop the loop.
func (r *Refresher) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("table refresher started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("table refresher stopping", zap.Error(ctx.Err()))
			return
		case <-ticker.Chan():
			_ = r.Refresh(ctx)
		}
	}
}
