package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-vis/internal/weather"
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	days    int
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(cfg HTTPClientConfig, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/forecast.json",
		days:    7,
		httpCfg: cfg,
		circuit: newCircuitBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) FetchHourly(ctx context.Context, loc weather.Location, variables []string) (weather.HourlySeries, error) {
	if p.apiKey == "" {
		return weather.HourlySeries{}, fmt.Errorf("weatherapi: %w", errMissingAPIKey)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI uses "q" for location; it accepts "lat,lon".
		values.Set("q", fmt.Sprintf("%f,%f", loc.Lat, loc.Lon))
		values.Set("days", fmt.Sprintf("%d", p.days))
		values.Set("aqi", "no")
		values.Set("alerts", "no")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.HourlySeries{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				Hour []struct {
					TimeEpoch int64   `json:"time_epoch"`
					TempC     float64 `json:"temp_c"`
					WindKph   float64 `json:"wind_kph"`
					Cloud     float64 `json:"cloud"`
				} `json:"hour"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.HourlySeries{}, fmt.Errorf("decode weatherapi response: %w", err)
	}

	var samples []sample
	for _, day := range payload.Forecast.ForecastDay {
		for _, h := range day.Hour {
			samples = append(samples, sample{
				at: time.Unix(h.TimeEpoch, 0),
				values: map[string]float64{
					weather.VarTemperature: h.TempC,
					weather.VarCloudCover:  h.Cloud,
					weather.VarWindSpeed:   h.WindKph,
				},
			})
		}
	}
	return gridSeries(samples, time.Hour, variables)
}
