package geocode

import (
	"context"
	"errors"

	"github.com/i474232898/weather-vis/internal/observability"
)

// Instrumented counts lookups on an inner Geocoder by outcome.
type Instrumented struct {
	inner   Geocoder
	metrics *observability.Metrics
}

// NewInstrumented wraps inner.
func NewInstrumented(inner Geocoder, metrics *observability.Metrics) *Instrumented {
	return &Instrumented{inner: inner, metrics: metrics}
}

func (g *Instrumented) Geocode(ctx context.Context, city string) (Coordinates, error) {
	coords, err := g.inner.Geocode(ctx, city)
	outcome := "success"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "empty"
	case err != nil:
		outcome = "error"
	}
	g.metrics.GeocodeRequests.WithLabelValues(outcome).Inc()
	return coords, err
}
