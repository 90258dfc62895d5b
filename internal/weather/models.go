package weather

import (
	"fmt"
	"math"
	"time"

	"github.com/i474232898/weather-vis/internal/observation"
)

// Hourly variable names requested from providers. They match the storage
// column names.
const (
	VarTemperature = "temperature_2m"
	VarCloudCover  = "cloud_cover"
	VarWindSpeed   = "wind_speed_80m"
)

// HourlyVariables is the default variable list, in request order.
var HourlyVariables = []string{VarTemperature, VarCloudCover, VarWindSpeed}

// Location is a geocoded city.
type Location struct {
	City string  `json:"city"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Key returns a canonical string key for logging this location.
func (l Location) Key() string {
	return fmt.Sprintf("%s(%.4f,%.4f)", l.City, l.Lat, l.Lon)
}

// HourlySeries is a regularly spaced series of samples per variable,
// covering [Start, End) at Interval. Missing samples are NaN.
type HourlySeries struct {
	Start     time.Time
	End       time.Time
	Interval  time.Duration
	Variables map[string][]float64
}

// Timestamps rebuilds the time index of the series.
func (s HourlySeries) Timestamps() []time.Time {
	if s.Interval <= 0 || !s.End.After(s.Start) {
		return nil
	}
	n := int(s.End.Sub(s.Start) / s.Interval)
	out := make([]time.Time, 0, n)
	for ts := s.Start; ts.Before(s.End); ts = ts.Add(s.Interval) {
		out = append(out, ts.UTC())
	}
	return out
}

// Rows converts the series into observation rows for city. Every variable
// in HourlyVariables must have exactly one sample per timestamp.
func (s HourlySeries) Rows(city string) ([]observation.Row, error) {
	stamps := s.Timestamps()
	for _, name := range HourlyVariables {
		vals, ok := s.Variables[name]
		if !ok {
			return nil, fmt.Errorf("series for %s: missing variable %s", city, name)
		}
		if len(vals) != len(stamps) {
			return nil, fmt.Errorf("series for %s: %s has %d samples for %d timestamps", city, name, len(vals), len(stamps))
		}
	}

	rows := make([]observation.Row, len(stamps))
	for i, ts := range stamps {
		rows[i] = observation.Row{
			Date:        ts,
			City:        city,
			Temperature: s.Variables[VarTemperature][i],
			CloudCover:  s.Variables[VarCloudCover][i],
			WindSpeed:   s.Variables[VarWindSpeed][i],
		}
	}
	return rows, nil
}

// NaNIfNil maps JSON nulls to NaN.
func NaNIfNil(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
