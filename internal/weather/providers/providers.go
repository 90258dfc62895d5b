// Package providers implements weather.Provider for the supported
// forecast APIs.
package providers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/i474232898/weather-vis/internal/weather"
)

// Provider names accepted by New.
const (
	OpenMeteo   = "openmeteo"
	OpenWeather = "openweather"
	WeatherAPI  = "weatherapi"
)

// Options configures the provider built by New.
type Options struct {
	Name              string
	Timeout           time.Duration
	MaxRetries        int
	OpenWeatherAPIKey string
	WeatherAPIKey     string
}

// New builds the named provider with its own HTTP client.
func New(opts Options) (weather.Provider, error) {
	cfg := HTTPClientConfig{
		Client:  &http.Client{Timeout: opts.Timeout},
		Backoff: DefaultBackoff(opts.MaxRetries),
	}
	switch opts.Name {
	case OpenMeteo, "":
		return NewOpenMeteoProvider(cfg), nil
	case OpenWeather:
		if opts.OpenWeatherAPIKey == "" {
			return nil, fmt.Errorf("openweather: %w", errMissingAPIKey)
		}
		return NewOpenWeatherProvider(cfg, opts.OpenWeatherAPIKey), nil
	case WeatherAPI:
		if opts.WeatherAPIKey == "" {
			return nil, fmt.Errorf("weatherapi: %w", errMissingAPIKey)
		}
		return NewWeatherAPIProvider(cfg, opts.WeatherAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown weather provider %q", opts.Name)
	}
}
