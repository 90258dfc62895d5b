// Package geocode resolves city names to coordinates.
package geocode

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a geocoder has no match for a query.
var ErrNotFound = errors.New("location not found")

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geocoder resolves a free-text city name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, city string) (Coordinates, error)
}
