package geocode

import (
	"context"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-vis/internal/common"
)

// The geocoder package keeps its API key in a package variable.
var googleMu sync.Mutex

// GoogleClient implements Geocoder with the Google Geocoding API.
type GoogleClient struct {
	apiKey string
	lookup func(geocoder.Address) (geocoder.Location, error)
}

// NewGoogleClient creates a Google geocoding client.
func NewGoogleClient(apiKey string) *GoogleClient {
	return &GoogleClient{apiKey: apiKey, lookup: geocoder.Geocoding}
}

// Geocode looks up city. The underlying client takes no context, so a
// canceled ctx is only honoured before the call starts.
func (c *GoogleClient) Geocode(ctx context.Context, city string) (Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return Coordinates{}, err
	}

	googleMu.Lock()
	geocoder.ApiKey = c.apiKey
	loc, err := c.lookup(geocoder.Address{City: city})
	googleMu.Unlock()

	if err != nil {
		if common.HasAny(err.Error(), "ZERO_RESULTS", "No results found") {
			return Coordinates{}, fmt.Errorf("%w: %q", ErrNotFound, city)
		}
		return Coordinates{}, fmt.Errorf("google geocode %q: %w", city, err)
	}
	return Coordinates{Lat: loc.Latitude, Lon: loc.Longitude}, nil
}
