package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"PORT", "LOG_LEVEL", "LOG_FORMAT",
	"STORAGE_BACKEND", "STORAGE_BUCKET", "STORAGE_KEY", "STORAGE_DIR", "S3_REGION", "S3_ENDPOINT", "POSTGRES_DSN",
	"STORE_MAX_HISTORY", "STORE_MAX_AGE",
	"REFRESH_INTERVAL", "REFRESH_TIMEOUT", "HTTP_TIMEOUT",
	"WEATHER_PROVIDER", "OPENWEATHER_API_KEY", "WEATHERAPI_API_KEY", "WEATHER_MAX_RETRIES",
	"GEOCODER", "GOOGLE_GEOCODER_API_KEY", "NOMINATIM_USER_AGENT", "GEOCODER_CACHE_SIZE",
	"CITIES", "CITIES_FILE", "DEFAULT_CITY",
	"INGEST_INTERVAL", "INGEST_TIMEOUT", "INGEST_ENABLED",
	"KAFKA_BROKERS", "KAFKA_TOPIC",
}

// clearEnv blanks every variable FromEnv reads; t.Setenv restores them.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "file", cfg.StorageBackend)
	assert.Equal(t, "forecast.csv", cfg.StorageKey)
	assert.Equal(t, 24, cfg.StoreMaxHistory)
	assert.Equal(t, 500*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "openmeteo", cfg.WeatherProvider)
	assert.Equal(t, 0, cfg.WeatherMaxRetries)
	assert.Equal(t, "nominatim", cfg.Geocoder)
	assert.Equal(t, DefaultCities, cfg.Cities)
	assert.Equal(t, "London", cfg.DefaultCity)
	assert.False(t, cfg.IngestEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CITIES", "Oslo, Bergen")
	t.Setenv("DEFAULT_CITY", "Bergen")
	t.Setenv("REFRESH_INTERVAL", "1m")
	t.Setenv("INGEST_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("WEATHER_MAX_RETRIES", "2")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, []string{"Oslo", "Bergen"}, cfg.Cities)
	assert.Equal(t, "Bergen", cfg.DefaultCity)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.True(t, cfg.IngestEnabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2, cfg.WeatherMaxRetries)
}

func TestFromEnv_CitiesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "cities.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_city: Rome\ncities:\n  - Rome\n  - Milan\n"), 0o644))
	t.Setenv("CITIES_FILE", path)
	t.Setenv("CITIES", "ignored")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"Rome", "Milan"}, cfg.Cities)
	assert.Equal(t, "Rome", cfg.DefaultCity)
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad duration":       {"REFRESH_INTERVAL": "soon"},
		"bad bool":           {"INGEST_ENABLED": "maybe"},
		"unknown backend":    {"STORAGE_BACKEND": "ftp"},
		"postgres no dsn":    {"STORAGE_BACKEND": "postgres"},
		"openweather no key": {"WEATHER_PROVIDER": "openweather"},
		"google no key":      {"GEOCODER": "google"},
		"negative retries":   {"WEATHER_MAX_RETRIES": "-1"},
		"missing file":       {"CITIES_FILE": "/does/not/exist.yaml"},
		"bad log format":     {"LOG_FORMAT": "xml"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
