package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_vis"

// Metrics holds the Prometheus collectors for the dashboard and the
// ingestion job.
type Metrics struct {
	// Table refresh.
	RefreshTotal    *prometheus.CounterVec // labels: outcome={success,error}
	RefreshDuration prometheus.Histogram
	TableRows       prometheus.Gauge
	TableVersion    prometheus.Gauge

	// Chart requests.
	ChartRenders *prometheus.CounterVec // labels: metric, format

	// Ingestion.
	IngestRuns     *prometheus.CounterVec // labels: outcome={success,error}
	IngestDuration prometheus.Histogram
	IngestSkipped  prometheus.Counter

	// Geocoding.
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
}

// NewMetrics creates all metrics and registers them with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RefreshTotal,
		m.RefreshDuration,
		m.TableRows,
		m.TableVersion,
		m.ChartRenders,
		m.IngestRuns,
		m.IngestDuration,
		m.IngestSkipped,
		m.GeocodeCache,
		m.GeocodeRequests,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build
// as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_refresh_total",
			Help:      "Observation table refresh attempts by outcome.",
		}, []string{"outcome"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "table_refresh_duration_seconds",
			Help:      "Duration of a table load from storage.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		TableRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_rows",
			Help:      "Rows in the currently served observation table.",
		}),
		TableVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_version",
			Help:      "Version of the currently served observation table.",
		}),
		ChartRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_renders_total",
			Help:      "Rendered chart panels by metric and format.",
		}, []string{"metric", "format"}),
		IngestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_runs_total",
			Help:      "Ingestion runs by outcome.",
		}, []string{"outcome"}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Duration of a complete geocode-fetch-store run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		IngestSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_cities_skipped_total",
			Help:      "Cities skipped because they could not be geocoded.",
		}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding lookups by outcome.",
		}, []string{"outcome"}),
	}
}
