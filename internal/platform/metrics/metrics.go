package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide HTTP metrics.
type Metrics struct {
	EndpointLatency *prometheus.HistogramVec
}

// New creates and registers the HTTP metrics on reg. Pass
// prometheus.DefaultRegisterer in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EndpointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cardscan_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route pattern",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"endpoint"}),
	}
}

// ObserveEndpointLatency records one request latency.
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	if m != nil {
		m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
	}
}
