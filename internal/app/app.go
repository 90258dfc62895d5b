// Package app assembles the components shared by the dashboard and the
// ingestion job from configuration.
package app

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/i474232898/weather-vis/internal/config"
	"github.com/i474232898/weather-vis/internal/geocode"
	"github.com/i474232898/weather-vis/internal/notify"
	"github.com/i474232898/weather-vis/internal/observability"
	"github.com/i474232898/weather-vis/internal/storage"
	"github.com/i474232898/weather-vis/internal/weather"
	"github.com/i474232898/weather-vis/internal/weather/providers"
)

// OpenTableStore opens the configured blob store and binds it to the
// table's bucket and key.
func OpenTableStore(ctx context.Context, cfg *config.AppConfig) (*storage.TableStore, io.Closer, error) {
	blobs, closer, err := storage.Open(ctx, storage.Options{
		Backend: cfg.StorageBackend,
		Dir:     cfg.StorageDir,
		S3: storage.S3Options{
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		},
		PostgresDSN:      cfg.PostgresDSN,
		MemoryMaxHistory: cfg.StoreMaxHistory,
		MemoryMaxAge:     cfg.StoreMaxAge,
	})
	if err != nil {
		return nil, nil, err
	}
	return storage.NewTableStore(blobs, cfg.StorageBucket, cfg.StorageKey), closer, nil
}

// NewIngestService builds the ingestion pipeline writing to store. The
// returned closer releases the Kafka writer, if any.
func NewIngestService(cfg *config.AppConfig, store weather.TableSaver, logger *zap.Logger, metrics *observability.Metrics) (*weather.Service, io.Closer, error) {
	geo, err := geocode.Build(geocode.Options{
		Provider:     cfg.Geocoder,
		UserAgent:    cfg.NominatimUserAgent,
		GoogleAPIKey: cfg.GoogleGeocoderAPIKey,
		Timeout:      cfg.HTTPTimeout,
		CacheSize:    cfg.GeocoderCacheSize,
	}, metrics)
	if err != nil {
		return nil, nil, err
	}

	provider, err := providers.New(providers.Options{
		Name:              cfg.WeatherProvider,
		Timeout:           cfg.HTTPTimeout,
		MaxRetries:        cfg.WeatherMaxRetries,
		OpenWeatherAPIKey: cfg.OpenWeatherAPIKey,
		WeatherAPIKey:     cfg.WeatherAPIKey,
	})
	if err != nil {
		return nil, nil, err
	}

	opts := []weather.Option{weather.WithTimeout(cfg.IngestTimeout)}
	var closer io.Closer = nopCloser{}
	if len(cfg.KafkaBrokers) > 0 {
		n := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.StorageBucket, cfg.StorageKey)
		opts = append(opts, weather.WithNotifier(n))
		closer = n
		logger.Info("kafka notifications enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	svc := weather.NewService(cfg.Cities, geo, provider, store, logger, metrics, opts...)
	return svc, closer, nil
}

// Closers closes every element, joining the errors.
type Closers []io.Closer

func (cs Closers) Close() error {
	var errs []error
	for i := len(cs) - 1; i >= 0; i-- {
		if cs[i] == nil {
			continue
		}
		if err := cs[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
