package refresh

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

	"github.com/i474232898/weather-vis/internal/observability"
	"github.com/i474232898/weather-vis/internal/observation"
)

// scriptedLoader returns its queued results in order, then repeats the last.
type scriptedLoader struct {
	mu      sync.Mutex
	results []loadResult
	calls   int
}

type loadResult struct {
	table *observation.Table
	err   error
}

func (l *scriptedLoader) Load(ctx context.Context) (*observation.Table, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.calls
	if i >= len(l.results) {
		i = len(l.results) - 1
	}
	l.calls++
	return l.results[i].table, l.results[i].err
}

func (l *scriptedLoader) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func tableOf(cities ...string) *observation.Table {
	rows := make([]observation.Row, len(cities))
	for i, c := range cities {
		rows[i] = observation.Row{City: c, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	}
	return observation.NewTable(rows)
}

func newTestRefresher(l Loader, clock clockwork.Clock) (*Refresher, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return New(l, time.Minute, zap.NewNop(), m, WithClock(clock)), m
}

func TestRefresh_NoDataBeforeFirstLoad(t *testing.T) {
	r, _ := newTestRefresher(&scriptedLoader{results: []loadResult{{err: errors.New("bucket unreachable")}}}, clockwork.NewFakeClock())

	assert.Nil(t, r.Current())
	assert.ErrorIs(t, r.CheckReadiness(context.Background()), ErrNoData)

	require.Error(t, r.Refresh(context.Background()))
	assert.Nil(t, r.Current(), "failed first load keeps the no-data state")
}

func TestRefresh_SuccessSwapsSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	loader := &scriptedLoader{results: []loadResult{
		{table: tableOf("London")},
		{table: tableOf("London", "Paris")},
	}}
	r, m := newTestRefresher(loader, clock)

	require.NoError(t, r.Refresh(context.Background()))
	first := r.Current()
	require.NotNil(t, first)
	assert.Equal(t, int64(1), first.Version)
	assert.Equal(t, clock.Now().UTC(), first.LoadedAt)
	assert.NoError(t, r.CheckReadiness(context.Background()))

	require.NoError(t, r.Refresh(context.Background()))
	second := r.Current()
	assert.Equal(t, int64(2), second.Version)
	assert.Equal(t, []string{"London", "Paris"}, second.Table.Cities())
	// The earlier snapshot is untouched by the swap.
	assert.Equal(t, []string{"London"}, first.Table.Cities())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TableRows))
}

func TestRefresh_FailureKeepsPreviousSnapshot(t *testing.T) {
	loader := &scriptedLoader{results: []loadResult{
		{table: tableOf("London")},
		{err: errors.New("timeout")},
		{table: nil},
	}}
	r, m := newTestRefresher(loader, clockwork.NewFakeClock())

	require.NoError(t, r.Refresh(context.Background()))
	before := r.Current()

	require.Error(t, r.Refresh(context.Background()))
	assert.Same(t, before, r.Current())

	require.Error(t, r.Refresh(context.Background()), "nil table counts as a failure")
	assert.Same(t, before, r.Current())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues("error")))
}

func TestRefresh_AppliesTimeout(t *testing.T) {
	blocking := loaderFunc(func(ctx context.Context) (*observation.Table, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	r := New(blocking, time.Minute, zap.NewNop(), observability.NewMetricsForTesting(), WithTimeout(20*time.Millisecond))

	err := r.Refresh(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRun_RefreshesOnEachTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	loader := &scriptedLoader{results: []loadResult{{table: tableOf("London")}}}
	r, _ := newTestRefresher(loader, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return loader.Calls() == 1 }, time.Second, 5*time.Millisecond)

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return loader.Calls() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(2), r.Current().Version)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestCurrent_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	loader := &scriptedLoader{results: []loadResult{{table: tableOf("A", "B", "C")}}}
	r, _ := newTestRefresher(loader, clockwork.NewFakeClock())
	require.NoError(t, r.Refresh(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snap := r.Current()
				if assert.NotNil(t, snap) {
					assert.Equal(t, 3, snap.Table.Len())
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		_ = r.Refresh(context.Background())
	}
	wg.Wait()
}

type loaderFunc func(ctx context.Context) (*observation.Table, error)

func (f loaderFunc) Load(ctx context.Context) (*observation.Table, error) { return f(ctx) }

func TestRefresh_OverlappingCallsKeepNewestTable(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	loader := loaderFunc(func(ctx context.Context) (*observation.Table, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(entered)
			<-gate
			return tableOf("Old"), nil
		}
		return tableOf("New", "New2"), nil
	})
	r := New(loader, time.Minute, zap.NewNop(), observability.NewMetricsForTesting(), WithTimeout(0))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, r.Refresh(context.Background()))
	}()
	<-entered
	go func() {
		defer wg.Done()
		assert.NoError(t, r.Refresh(context.Background()))
	}()

	// The second call must not load while the first is still in flight.
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()

	close(gate)
	wg.Wait()

	snap := r.Current()
	require.NotNil(t, snap)
	assert.Equal(t, int64(2), snap.Version)
	assert.Equal(t, []string{"New", "New2"}, snap.Table.Cities())
}
