package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks what happens to operations audit events.
type Metrics struct {
	Tracked             prometheus.Counter
	Sampled             prometheus.Counter
	BreakerDropped      prometheus.Counter
	PersistFailures     prometheus.Counter
	CircuitBreakerState prometheus.Gauge
}

// NewMetrics registers the audit metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Tracked: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardscan_audit_ops_tracked_total",
			Help: "Operations audit events stored",
		}),
		Sampled: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardscan_audit_ops_sampled_total",
			Help: "Operations audit events dropped by sampling",
		}),
		BreakerDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardscan_audit_ops_circuit_breaker_dropped_total",
			Help: "Operations audit events dropped while the circuit was open",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardscan_audit_ops_persist_failures_total",
			Help: "Operations audit events the sink failed to store",
		}),
		CircuitBreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cardscan_audit_ops_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open)",
		}),
	}
}

func (m *Metrics) incTracked() {
	if m != nil {
		m.Tracked.Inc()
	}
}

func (m *Metrics) incSampled() {
	if m != nil {
		m.Sampled.Inc()
	}
}

func (m *Metrics) incBreakerDropped() {
	if m != nil {
		m.BreakerDropped.Inc()
	}
}

func (m *Metrics) incPersistFailures() {
	if m != nil {
		m.PersistFailures.Inc()
	}
}

func (m *Metrics) setBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitBreakerState.Set(1)
		return
	}
	m.CircuitBreakerState.Set(0)
}
