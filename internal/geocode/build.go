package geocode

import (
	"fmt"
	"time"

	"github.com/i474232898/weather-vis/internal/observability"
)

// Provider names accepted by Build.
const (
	ProviderNominatim = "nominatim"
	ProviderGoogle    = "google"
)

// Options selects and configures the geocoder chain.
type Options struct {
	Provider     string
	UserAgent    string
	GoogleAPIKey string
	Timeout      time.Duration
	CacheSize    int
}

// Build returns the configured geocoder wrapped with metrics and, when
// CacheSize > 0, an LRU cache.
func Build(opts Options, metrics *observability.Metrics) (Geocoder, error) {
	var g Geocoder
	switch opts.Provider {
	case ProviderNominatim, "":
		g = NewNominatimClient(opts.UserAgent, opts.Timeout)
	case ProviderGoogle:
		if opts.GoogleAPIKey == "" {
			return nil, fmt.Errorf("google geocoder requires an API key")
		}
		g = NewGoogleClient(opts.GoogleAPIKey)
	default:
		return nil, fmt.Errorf("unknown geocoder %q", opts.Provider)
	}

	g = NewInstrumented(g, metrics)
	if opts.CacheSize > 0 {
		g = NewCachedGeocoder(g, opts.CacheSize, metrics)
	}
	return g, nil
}
