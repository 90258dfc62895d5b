package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/i474232898/weather-vis/internal/config"
	"github.com/i474232898/weather-vis/internal/observability"
)

func testConfig(t *testing.T) *config.AppConfig {
	return &config.AppConfig{
		StorageBackend:    "file",
		StorageBucket:     "weather",
		StorageKey:        "forecast.csv",
		StorageDir:        t.TempDir(),
		HTTPTimeout:       time.Second,
		WeatherProvider:   "openmeteo",
		Geocoder:          "nominatim",
		GeocoderCacheSize: 16,
		Cities:            []string{"London"},
		IngestTimeout:     time.Minute,
	}
}

func TestOpenTableStore(t *testing.T) {
	cfg := testConfig(t)
	store, closer, err := OpenTableStore(context.Background(), cfg)
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, "weather/forecast.csv", store.Location())
}

func TestNewIngestService(t *testing.T) {
	cfg := testConfig(t)
	store, _, err := OpenTableStore(context.Background(), cfg)
	require.NoError(t, err)

	svc, closer, err := NewIngestService(cfg, store, zap.NewNop(), observability.NewMetricsForTesting())
	require.NoError(t, err)
	assert.NotNil(t, svc)
	assert.NoError(t, closer.Close())

	cfg.WeatherProvider = "unknown"
	_, _, err = NewIngestService(cfg, store, zap.NewNop(), observability.NewMetricsForTesting())
	assert.Error(t, err)
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

func TestClosers_ClosesInReverseAndJoins(t *testing.T) {
	var order []int
	boom := errors.New("boom")
	cs := Closers{
		closeFunc(func() error { order = append(order, 1); return nil }),
		nil,
		closeFunc(func() error { order = append(order, 2); return boom }),
	}
	err := cs.Close()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{2, 1}, order)
}
