package geocode

import (
	"context"
	"errors"
	"testing"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleClient_Geocode(t *testing.T) {
	c := NewGoogleClient("key")
	c.lookup = func(addr geocoder.Address) (geocoder.Location, error) {
		assert.Equal(t, "Paris", addr.City)
		assert.Equal(t, "key", geocoder.ApiKey)
		return geocoder.Location{Latitude: 48.85, Longitude: 2.35}, nil
	}

	got, err := c.Geocode(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Lat: 48.85, Lon: 2.35}, got)
}

func TestGoogleClient_ZeroResultsIsNotFound(t *testing.T) {
	c := NewGoogleClient("key")
	c.lookup = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("ZERO_RESULTS")
	}

	_, err := c.Geocode(context.Background(), "Nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGoogleClient_OtherErrorsPassThrough(t *testing.T) {
	c := NewGoogleClient("key")
	c.lookup = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("REQUEST_DENIED")
	}

	_, err := c.Geocode(context.Background(), "Paris")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestGoogleClient_CanceledContext(t *testing.T) {
	c := NewGoogleClient("key")
	c.lookup = func(geocoder.Address) (geocoder.Location, error) {
		t.Fatal("lookup should not be called")
		return geocoder.Location{}, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Geocode(ctx, "Paris")
	assert.ErrorIs(t, err, context.Canceled)
}
