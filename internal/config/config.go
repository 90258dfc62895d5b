package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-vis/internal/common"
)

var validate = validator.New()

// DefaultCities is used when neither CITIES nor CITIES_FILE is set.
var DefaultCities = []string{"London", "Paris", "Berlin", "Madrid", "Rome"}

type AppConfig struct {
	Port      string
	LogLevel  string
	LogFormat string `validate:"oneof=json console text"`

	// Table storage.
	StorageBackend string `validate:"oneof=file s3 postgres memory"`
	StorageBucket  string `validate:"required"`
	StorageKey     string `validate:"required"`
	StorageDir     string `validate:"required_if=StorageBackend file"`
	S3Region       string
	S3Endpoint     string `validate:"omitempty,url"`
	PostgresDSN    string `validate:"required_if=StorageBackend postgres"`

	// In-memory backend retention.
	StoreMaxHistory int           `validate:"gte=0"` // max revisions kept (0 = unlimited)
	StoreMaxAge     time.Duration `validate:"gte=0"` // max age of revisions (0 = unlimited)

	// Dashboard refresh of the served table.
	RefreshInterval time.Duration `validate:"gt=0"`
	RefreshTimeout  time.Duration `validate:"gt=0"`

	// Outbound HTTP (weather providers and geocoders).
	HTTPTimeout time.Duration `validate:"gt=0"`

	WeatherProvider   string `validate:"oneof=openmeteo openweather weatherapi"`
	OpenWeatherAPIKey string `validate:"required_if=WeatherProvider openweather"`
	WeatherAPIKey     string `validate:"required_if=WeatherProvider weatherapi"`
	WeatherMaxRetries int    `validate:"gte=0,lte=10"`

	Geocoder             string `validate:"oneof=nominatim google"`
	GoogleGeocoderAPIKey string `validate:"required_if=Geocoder google"`
	NominatimUserAgent   string
	GeocoderCacheSize    int `validate:"gte=0"`

	// Cities to ingest and the one pre-selected on the dashboard.
	Cities      []string `validate:"min=1,dive,required"`
	DefaultCity string

	IngestInterval time.Duration `validate:"gt=0"`
	IngestTimeout  time.Duration `validate:"gt=0"`
	IngestEnabled  bool

	// Kafka notification is enabled when KafkaBrokers is non-empty.
	KafkaBrokers []string
	KafkaTopic   string `validate:"required_with=KafkaBrokers"`
}

// citiesFile is the YAML layout read from CITIES_FILE.
type citiesFile struct {
	DefaultCity string   `yaml:"default_city"`
	Cities      []string `yaml:"cities"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "json")

	cfg.StorageBackend = getenvDefault("STORAGE_BACKEND", "file")
	cfg.StorageBucket = getenvDefault("STORAGE_BUCKET", "weather-vis")
	cfg.StorageKey = getenvDefault("STORAGE_KEY", "forecast.csv")
	cfg.StorageDir = getenvDefault("STORAGE_DIR", "data")
	cfg.S3Region = os.Getenv("S3_REGION")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 24)
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", 0); err != nil {
		return nil, err
	}

	// The dashboard re-reads the table every 500 seconds by default.
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", 500*time.Second); err != nil {
		return nil, err
	}
	if cfg.RefreshTimeout, err = getenvDuration("REFRESH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.WeatherProvider = getenvDefault("WEATHER_PROVIDER", "openmeteo")
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.WeatherMaxRetries = getenvInt("WEATHER_MAX_RETRIES", 0)

	cfg.Geocoder = getenvDefault("GEOCODER", "nominatim")
	cfg.GoogleGeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")
	cfg.NominatimUserAgent = getenvDefault("NOMINATIM_USER_AGENT", "weather-vis/1.0")
	cfg.GeocoderCacheSize = getenvInt("GEOCODER_CACHE_SIZE", 256)

	if err := loadCities(cfg); err != nil {
		return nil, err
	}

	if cfg.IngestInterval, err = getenvDuration("INGEST_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.IngestTimeout, err = getenvDuration("INGEST_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.IngestEnabled, err = getenvBool("INGEST_ENABLED", false); err != nil {
		return nil, err
	}

	cfg.KafkaBrokers = common.SplitList(os.Getenv("KAFKA_BROKERS"))
	cfg.KafkaTopic = getenvDefault("KAFKA_TOPIC", "weather.table-updated")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadCities fills Cities and DefaultCity from CITIES_FILE, then CITIES,
// then the built-in list. DEFAULT_CITY overrides the file's default.
func loadCities(cfg *AppConfig) error {
	if path := os.Getenv("CITIES_FILE"); path != "" {
		f, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read CITIES_FILE: %w", err)
		}
		var cf citiesFile
		if err := yaml.Unmarshal(f, &cf); err != nil {
			return fmt.Errorf("parse CITIES_FILE %s: %w", path, err)
		}
		cfg.Cities = cf.Cities
		cfg.DefaultCity = cf.DefaultCity
	} else if cities := common.SplitList(os.Getenv("CITIES")); len(cities) > 0 {
		cfg.Cities = cities
	} else {
		cfg.Cities = append([]string(nil), DefaultCities...)
	}

	cfg.DefaultCity = getenvDefault("DEFAULT_CITY", cfg.DefaultCity)
	if cfg.DefaultCity == "" {
		cfg.DefaultCity = "London"
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
