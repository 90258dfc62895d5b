package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/i474232898/weather-vis/internal/observability"
)

// Run statuses reported in Result.Status.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ErrNoCities is returned when a run has nothing to fetch, either because
// none were configured or because none could be geocoded.
var ErrNoCities = errors.New("no cities to fetch")

// Result summarizes one ingestion run.
type Result struct {
	Status      string    `json:"status"`
	RunID       string    `json:"run_id"`
	Rows        int       `json:"rows"`
	Cities      []string  `json:"cities"`
	Skipped     []string  `json:"skipped,omitempty"`
	Key         string    `json:"key,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Error       string    `json:"error,omitempty"`
}

// Service runs the geocode, fetch, encode and store pipeline for a fixed
// list of cities.
type Service struct {
	cities   []string
	geocoder Geocoder
	provider Provider
	store    TableSaver
	notifier Notifier
	logger   *zap.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	timeout  time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier publishes each stored run.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides the clock used for timestamps and durations.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithTimeout bounds each run. Zero means no extra bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// NewService creates a new Service.
func NewService(cities []string, geocoder Geocoder, provider Provider, store TableSaver, logger *zap.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		cities:   dedupe(cities),
		geocoder: geocoder,
		provider: provider,
		store:    store,
		logger:   logger,
		metrics:  metrics,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run geocodes every city, fetches its hourly forecast and stores the
// combined table. Cities that cannot be geocoded are skipped. Any fetch
// failure fails the whole run and nothing is stored.
func (s *Service) Run(ctx context.Context) (Result, error) {
	start := s.clock.Now()
	res := Result{RunID: uuid.NewString(), GeneratedAt: start.UTC(), Key: s.store.Location()}
	log := s.logger.With(zap.String("run_id", res.RunID))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err := s.run(ctx, log, &res)
	s.metrics.IngestDuration.Observe(s.clock.Since(start).Seconds())
	s.metrics.IngestSkipped.Add(float64(len(res.Skipped)))

	if err != nil {
		res.Status = StatusError
		res.Error = err.Error()
		s.metrics.IngestRuns.WithLabelValues("error").Inc()
		log.Error("ingestion run failed", zap.Error(err), zap.Strings("skipped", res.Skipped))
		return res, err
	}

	res.Status = StatusOK
	s.metrics.IngestRuns.WithLabelValues("success").Inc()
	log.Info("ingestion run stored",
		zap.String("key", res.Key),
		zap.Int("rows", res.Rows),
		zap.Strings("cities", res.Cities),
		zap.Strings("skipped", res.Skipped),
	)

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, res); err != nil {
			log.Warn("ingestion notification failed", zap.Error(err))
		}
	}
	return res, nil
}

func (s *Service) run(ctx context.Context, log *zap.Logger, res *Result) error {
	if len(s.cities) == 0 {
		return ErrNoCities
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		fetched  = make([]*citySeries, len(s.cities))
		skipped  = make([]bool, len(s.cities))
		firstErr error
	)

	for i, city := range s.cities {
		wg.Add(1)
		go func(i int, city string) {
			defer wg.Done()

			coords, err := s.geocoder.Geocode(ctx, city)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn("skipping city: geocoding failed", zap.String("city", city), zap.Error(err))
				mu.Lock()
				skipped[i] = true
				mu.Unlock()
				return
			}

			loc := Location{City: city, Lat: coords.Lat, Lon: coords.Lon}
			series, err := s.provider.FetchHourly(ctx, loc, HourlyVariables)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s fetch for %s: %w", s.provider.Name(), loc.Key(), err)
					cancel()
				}
				mu.Unlock()
				return
			}

			mu.Lock()
			fetched[i] = &citySeries{loc: loc, series: series}
			mu.Unlock()
		}(i, city)
	}

	wg.Wait()

	for i, city := range s.cities {
		if skipped[i] {
			res.Skipped = append(res.Skipped, city)
		}
	}
	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	results := make([]citySeries, 0, len(fetched))
	for _, r := range fetched {
		if r != nil {
			results = append(results, *r)
			res.Cities = append(res.Cities, r.loc.City)
		}
	}
	if len(results) == 0 {
		return fmt.Errorf("%w: all %d cities failed geocoding", ErrNoCities, len(s.cities))
	}

	table, err := aggregateTable(results)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, table); err != nil {
		return fmt.Errorf("store table: %w", err)
	}
	res.Rows = table.Len()
	return nil
}

func dedupe(cities []string) []string {
	seen := make(map[string]bool, len(cities))
	out := make([]string, 0, len(cities))
	for _, c := range cities {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
