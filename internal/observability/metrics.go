package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// directory service.
type Metrics struct {
	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: kind={zip,city}, outcome={found,not_found,error}
	GeocodeCache       *prometheus.CounterVec   // labels: tier={memory,durable}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: kind={zip,city}
	GeocodeQueueDepth  prometheus.Gauge

	// Dataset metrics.
	DatasetRows  *prometheus.GaugeVec   // labels: table={directory,events}
	DatasetLoads *prometheus.CounterVec // labels: outcome={success,error}

	// Admin commit metrics.
	AdminCommits *prometheus.CounterVec // labels: table={directory,events}, outcome={success,conflict,unauthorized,error}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matdir",
			Name:      "geocode_requests_total",
			Help:      "Upstream geocode requests by lookup kind and outcome.",
		}, []string{"kind", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matdir",
			Name:      "geocode_cache_total",
			Help:      "Geocode cache lookups by tier and result.",
		}, []string{"tier", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "matdir",
			Name:      "geocode_api_duration_seconds",
			Help:      "Upstream geocode request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"kind"}),
		GeocodeQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "matdir",
			Name:      "geocode_queue_depth",
			Help:      "Geocode lookups waiting in the serialized request queue.",
		}),
		DatasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "matdir",
			Name:      "dataset_rows",
			Help:      "Rows currently loaded per table.",
		}, []string{"table"}),
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matdir",
			Name:      "dataset_loads_total",
			Help:      "Dataset load attempts by outcome.",
		}, []string{"outcome"}),
		AdminCommits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matdir",
			Name:      "admin_commits_total",
			Help:      "Admin append-row commits by table and outcome.",
		}, []string{"table", "outcome"}),
	}

	prometheus.MustRegister(
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeQueueDepth,
		m.DatasetRows,
		m.DatasetLoads,
		m.AdminCommits,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering, so parallel
// tests avoid "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		GeocodeRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "matdir", Name: "geocode_requests_total"}, []string{"kind", "outcome"}),
		GeocodeCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "matdir", Name: "geocode_cache_total"}, []string{"tier", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "matdir", Name: "geocode_api_duration_seconds"}, []string{"kind"}),
		GeocodeQueueDepth:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "matdir", Name: "geocode_queue_depth"}),
		DatasetRows:        prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "matdir", Name: "dataset_rows"}, []string{"table"}),
		DatasetLoads:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "matdir", Name: "dataset_loads_total"}, []string{"outcome"}),
		AdminCommits:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "matdir", Name: "admin_commits_total"}, []string{"table", "outcome"}),
	}
}
