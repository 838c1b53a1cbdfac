package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "diabetes_api"

// Breaker state values reported by BreakerState.
const (
	BreakerClosed   = 0
	BreakerHalfOpen = 1
	BreakerOpen     = 2
)

// Metrics holds the Prometheus counters, histograms, and gauges for the API.
type Metrics struct {
	// Upstream fetch metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: source={fingertips,arcgis,snapshot}, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: source
	BreakerState     *prometheus.GaugeVec     // labels: breaker

	// Cache metrics.
	CacheLookups *prometheus.CounterVec // labels: kind={indicator,boundaries}, result={hit,miss}
	CacheEntries prometheus.Gauge

	// Rendering and HTTP metrics.
	RenderDuration *prometheus.HistogramVec // labels: kind={map,chart}
	HTTPRequests   *prometheus.CounterVec   // labels: route, status
	HTTPDuration   *prometheus.HistogramVec // labels: route
}

// NewMetrics creates and registers all API metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.BreakerState,
		m.CacheLookups,
		m.CacheEntries,
		m.RenderDuration,
		m.HTTPRequests,
		m.HTTPDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream data fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Upstream fetch duration in seconds, including download and parsing.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"source"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}, []string{"breaker"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Data cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		CacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Number of datasets held in the data cache.",
		}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Image rendering duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}
