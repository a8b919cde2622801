package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "arcgo"

// Metrics holds the Prometheus collectors for calls against ArcGIS services.
type Metrics struct {
	Requests        *prometheus.CounterVec   // labels: endpoint, outcome={success,error}
	RequestDuration *prometheus.HistogramVec // labels: endpoint
	GeocodeCache    *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
}

// New creates all collectors and registers them with the given registerer.
func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rest_requests_total",
			Help:      "ArcGIS REST requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rest_request_duration_seconds",
			Help:      "ArcGIS REST request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
	}

	registerer.MustRegister(
		m.Requests,
		m.RequestDuration,
		m.GeocodeCache,
	)

	return m
}

// NewForTesting registers the collectors with a fresh registry to avoid "already registered" panics across tests.
func NewForTesting() *Metrics {
	return New(prometheus.NewRegistry())
}
