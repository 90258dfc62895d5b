package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultUserAgent identifies the client to Nominatim, whose usage policy
// rejects requests without one.
const DefaultUserAgent = "weather-vis/1.0"

// NominatimClient implements Geocoder using the OpenStreetMap Nominatim
// search API.
type NominatimClient struct {
	userAgent  string
	httpClient *http.Client
	baseURL    string
}

// NewNominatimClient creates a Nominatim geocoding client.
func NewNominatimClient(userAgent string, timeout time.Duration) *NominatimClient {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &NominatimClient{
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://nominatim.openstreetmap.org/search",
	}
}

// Geocode returns the coordinates of the best match for city.
func (c *NominatimClient) Geocode(ctx context.Context, city string) (Coordinates, error) {
	params := url.Values{
		"q":      {city},
		"format": {"json"},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Coordinates{}, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Coordinates{}, fmt.Errorf("decode response: %w", err)
	}
	if len(places) == 0 {
		return Coordinates{}, fmt.Errorf("%w: %q", ErrNotFound, city)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse lat %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse lon %q: %w", places[0].Lon, err)
	}
	return Coordinates{Lat: lat, Lon: lon}, nil
}

// Nominatim returns coordinates as strings.
type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
