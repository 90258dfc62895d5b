package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-vis/internal/weather"
)

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// It needs no API key.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(cfg HTTPClientConfig) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: cfg,
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) FetchHourly(ctx context.Context, loc weather.Location, variables []string) (weather.HourlySeries, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", loc.Lat))
		values.Set("longitude", fmt.Sprintf("%f", loc.Lon))
		values.Set("hourly", strings.Join(variables, ","))
		values.Set("timeformat", "unixtime")
		values.Set("wind_speed_unit", "kmh")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.HourlySeries{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly map[string]json.RawMessage `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.HourlySeries{}, fmt.Errorf("decode openmeteo response: %w", err)
	}

	var stamps []int64
	if err := json.Unmarshal(payload.Hourly["time"], &stamps); err != nil {
		return weather.HourlySeries{}, fmt.Errorf("decode openmeteo time: %w", err)
	}
	if len(stamps) == 0 {
		return weather.HourlySeries{}, fmt.Errorf("openmeteo returned no hourly data")
	}

	interval := time.Hour
	if len(stamps) > 1 {
		interval = time.Duration(stamps[1]-stamps[0]) * time.Second
	}
	if interval <= 0 {
		return weather.HourlySeries{}, fmt.Errorf("openmeteo time index is not increasing")
	}

	series := weather.HourlySeries{
		Start:     time.Unix(stamps[0], 0).UTC(),
		Interval:  interval,
		Variables: make(map[string][]float64, len(variables)),
	}
	series.End = series.Start.Add(time.Duration(len(stamps)) * interval)

	for _, name := range variables {
		raw, ok := payload.Hourly[name]
		if !ok {
			return weather.HourlySeries{}, fmt.Errorf("openmeteo response missing %s", name)
		}
		var vals []*float64
		if err := json.Unmarshal(raw, &vals); err != nil {
			return weather.HourlySeries{}, fmt.Errorf("decode openmeteo %s: %w", name, err)
		}
		if len(vals) != len(stamps) {
			return weather.HourlySeries{}, fmt.Errorf("openmeteo %s has %d values for %d timestamps", name, len(vals), len(stamps))
		}
		col := make([]float64, len(vals))
		for i, v := range vals {
			col[i] = weather.NaNIfNil(v)
		}
		series.Variables[name] = col
	}
	return series, nil
}
