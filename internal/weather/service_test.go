package weather

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/i474232898/weather-vis/internal/geocode"
	"github.com/i474232898/weather-vis/internal/observability"
	"github.com/i474232898/weather-vis/internal/observation"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeGeocoder map[string]geocode.Coordinates

func (f fakeGeocoder) Geocode(_ context.Context, city string) (geocode.Coordinates, error) {
	c, ok := f[city]
	if !ok {
		return geocode.Coordinates{}, geocode.ErrNotFound
	}
	return c, nil
}

type fakeProvider struct {
	fail map[string]error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) FetchHourly(_ context.Context, loc Location, vars []string) (HourlySeries, error) {
	if err := p.fail[loc.City]; err != nil {
		return HourlySeries{}, err
	}
	s := HourlySeries{Start: t0, End: t0.Add(2 * time.Hour), Interval: time.Hour, Variables: map[string][]float64{}}
	for _, v := range vars {
		s.Variables[v] = []float64{loc.Lat, loc.Lat + 1}
	}
	return s, nil
}

type memSaver struct {
	mu    sync.Mutex
	saved *observation.Table
	err   error
}

func (m *memSaver) Save(_ context.Context, t *observation.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = t
	return nil
}

func (m *memSaver) Location() string { return "weather/forecast.csv" }

type recordingNotifier struct {
	got []Result
	err error
}

func (n *recordingNotifier) Notify(_ context.Context, r Result) error {
	n.got = append(n.got, r)
	return n.err
}

var geo = fakeGeocoder{
	"London": {Lat: 51.5, Lon: -0.1},
	"Paris":  {Lat: 48.9, Lon: 2.3},
}

func newTestService(cities []string, p Provider, s TableSaver, opts ...Option) (*Service, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	opts = append([]Option{WithClock(clockwork.NewFakeClockAt(t0))}, opts...)
	return NewService(cities, geo, p, s, zap.NewNop(), m, opts...), m
}

func TestRun_StoresAllCities(t *testing.T) {
	saver := &memSaver{}
	n := &recordingNotifier{}
	svc, m := newTestService([]string{"London", "Paris", "London"}, &fakeProvider{}, saver, WithNotifier(n))

	res, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusOK, res.Status)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{"London", "Paris"}, res.Cities)
	assert.Equal(t, 4, res.Rows)
	assert.Equal(t, "weather/forecast.csv", res.Key)
	assert.Equal(t, t0, res.GeneratedAt)

	require.NotNil(t, saver.saved)
	assert.Equal(t, []float64{51.5, 52.5}, saver.saved.Column("London", observation.Temperature))
	assert.Equal(t, []time.Time{t0, t0.Add(time.Hour)}, saver.saved.Dates("Paris"))

	require.Len(t, n.got, 1)
	assert.Equal(t, res.RunID, n.got[0].RunID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestRuns.WithLabelValues("success")))
}

func TestRun_SkipsUngeocodableCities(t *testing.T) {
	saver := &memSaver{}
	svc, m := newTestService([]string{"London", "Atlantis"}, &fakeProvider{}, saver)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"London"}, res.Cities)
	assert.Equal(t, []string{"Atlantis"}, res.Skipped)
	assert.Equal(t, []string{"London"}, saver.saved.Cities())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestSkipped))
}

func TestRun_AllSkippedFails(t *testing.T) {
	saver := &memSaver{}
	svc, _ := newTestService([]string{"Atlantis"}, &fakeProvider{}, saver)

	res, err := svc.Run(context.Background())
	require.ErrorIs(t, err, ErrNoCities)
	assert.Equal(t, StatusError, res.Status)
	assert.Nil(t, saver.saved)
}

func TestRun_FetchFailureStoresNothing(t *testing.T) {
	saver := &memSaver{}
	n := &recordingNotifier{}
	p := &fakeProvider{fail: map[string]error{"Paris": errors.New("upstream down")}}
	svc, m := newTestService([]string{"London", "Paris"}, p, saver, WithNotifier(n))

	res, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Error, "Paris")
	assert.Nil(t, saver.saved)
	assert.Empty(t, n.got)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestRuns.WithLabelValues("error")))
}

func TestRun_StoreFailure(t *testing.T) {
	saver := &memSaver{err: errors.New("bucket missing")}
	svc, _ := newTestService([]string{"London"}, &fakeProvider{}, saver)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store table")
}

func TestRun_NotifyFailureIsNotFatal(t *testing.T) {
	n := &recordingNotifier{err: errors.New("broker gone")}
	svc, _ := newTestService([]string{"London"}, &fakeProvider{}, &memSaver{}, WithNotifier(n))

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
}

func TestRun_NoCitiesConfigured(t *testing.T) {
	svc, _ := newTestService(nil, &fakeProvider{}, &memSaver{})
	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoCities)
}

func TestHourlySeries_Timestamps(t *testing.T) {
	s := HourlySeries{Start: t0, End: t0.Add(3 * time.Hour), Interval: time.Hour}
	assert.Equal(t, []time.Time{t0, t0.Add(time.Hour), t0.Add(2 * time.Hour)}, s.Timestamps())

	assert.Empty(t, HourlySeries{Start: t0, End: t0, Interval: time.Hour}.Timestamps())
	assert.Empty(t, HourlySeries{Start: t0, End: t0.Add(time.Hour)}.Timestamps())
}

func TestHourlySeries_RowsLengthMismatch(t *testing.T) {
	s := HourlySeries{
		Start: t0, End: t0.Add(2 * time.Hour), Interval: time.Hour,
		Variables: map[string][]float64{VarTemperature: {1, 2}, VarCloudCover: {1}, VarWindSpeed: {1, 2}},
	}
	_, err := s.Rows("London")
	assert.Error(t, err)
}
