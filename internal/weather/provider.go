package weather

import (
	"context"

	"github.com/i474232898/weather-vis/internal/geocode"
	"github.com/i474232898/weather-vis/internal/observation"
)

// Provider abstracts an hourly forecast source (e.g. Open-Meteo, OpenWeatherMap, WeatherAPI).
type Provider interface {
	Name() string
	FetchHourly(ctx context.Context, loc Location, variables []string) (HourlySeries, error)
}

// Geocoder resolves city names for the ingestion run.
type Geocoder interface {
	Geocode(ctx context.Context, city string) (geocode.Coordinates, error)
}

// TableSaver is where a finished run writes its table.
type TableSaver interface {
	Save(ctx context.Context, table *observation.Table) error
	Location() string
}

// Notifier is told about each successfully stored run.
type Notifier interface {
	Notify(ctx context.Context, res Result) error
}
