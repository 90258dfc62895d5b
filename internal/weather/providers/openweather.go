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

// OpenWeatherProvider implements the weather.Provider interface for the
// OpenWeatherMap 5 day / 3 hour forecast.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(cfg HTTPClientConfig, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/forecast",
		httpCfg: cfg,
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) FetchHourly(ctx context.Context, loc weather.Location, variables []string) (weather.HourlySeries, error) {
	if p.apiKey == "" {
		return weather.HourlySeries{}, fmt.Errorf("openweather: %w", errMissingAPIKey)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		values.Set("lat", fmt.Sprintf("%f", loc.Lat))
		values.Set("lon", fmt.Sprintf("%f", loc.Lon))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.HourlySeries{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				Temp float64 `json:"temp"`
			} `json:"main"`
			Wind struct {
				Speed float64 `json:"speed"`
			} `json:"wind"`
			Clouds struct {
				All float64 `json:"all"`
			} `json:"clouds"`
		} `json:"list"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.HourlySeries{}, fmt.Errorf("decode openweather response: %w", err)
	}

	samples := make([]sample, 0, len(payload.List))
	for _, item := range payload.List {
		samples = append(samples, sample{
			at: time.Unix(item.Dt, 0),
			values: map[string]float64{
				weather.VarTemperature: item.Main.Temp,
				weather.VarCloudCover:  item.Clouds.All,
				// Only 10 m wind is available; it stands in for 80 m.
				weather.VarWindSpeed: kmh(item.Wind.Speed),
			},
		})
	}
	return gridSeries(samples, 3*time.Hour, variables)
}
