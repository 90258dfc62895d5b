package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNominatim(t *testing.T, handler http.HandlerFunc) *NominatimClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewNominatimClient("weather-vis-test", 5*time.Second)
	c.baseURL = srv.URL
	return c
}

func TestNominatim_Geocode(t *testing.T) {
	c := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "London", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "weather-vis-test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"51.5073219","lon":"-0.1276474","display_name":"London, Greater London, England, United Kingdom"}]`))
	})

	got, err := c.Geocode(context.Background(), "London")
	require.NoError(t, err)
	assert.InDelta(t, 51.5073219, got.Lat, 1e-9)
	assert.InDelta(t, -0.1276474, got.Lon, 1e-9)
}

func TestNominatim_NoResults(t *testing.T) {
	c := newTestNominatim(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.Geocode(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNominatim_HTTPError(t *testing.T) {
	c := newTestNominatim(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	_, err := c.Geocode(context.Background(), "London")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "429")
}

func TestNominatim_BadCoordinate(t *testing.T) {
	c := newTestNominatim(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"north","lon":"0"}]`))
	})

	_, err := c.Geocode(context.Background(), "London")
	assert.Error(t, err)
}

func TestNewNominatimClient_DefaultUserAgent(t *testing.T) {
	c := NewNominatimClient("", time.Second)
	assert.Equal(t, DefaultUserAgent, c.userAgent)
}
