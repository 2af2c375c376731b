package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"cardscan/internal/scan/models"
)

// Metrics provides observability for scan sessions.
type Metrics struct {
	// Sessions started by host platform
	SessionsStarted *prometheus.CounterVec

	// Submitted captures by side, outcome and platform
	Submissions *prometheus.CounterVec

	// Sessions reaching a terminal state
	SessionsFinished *prometheus.CounterVec

	// Classifier score per submitted side
	ClassifierScore *prometheus.HistogramVec

	// Service operation latency, including store round trips
	OperationLatency *prometheus.HistogramVec
}

// New creates the scan metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cardscan_sessions_started_total",
			Help: "Total scan sessions started by host platform",
		}, []string{"platform"}),

		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cardscan_submissions_total",
			Help: "Total submitted captures by side, reason and platform",
		}, []string{"side", "reason", "platform"}), // reason: accepted, invalid_side, duplicate_side

		SessionsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cardscan_sessions_finished_total",
			Help: "Total scan sessions reaching a terminal state",
		}, []string{"state", "platform"}),

		ClassifierScore: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cardscan_classifier_score",
			Help:    "Weighted classifier score of submitted captures",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		}, []string{"side"}),

		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cardscan_operation_duration_seconds",
			Help:    "Duration of scan service operations",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"operation"}),
	}
}

// IncrementStarted records a new session.
func (m *Metrics) IncrementStarted(platform models.Platform) {
	if m != nil {
		m.SessionsStarted.WithLabelValues(string(platform)).Inc()
	}
}

// ObserveSubmission records one processed capture.
func (m *Metrics) ObserveSubmission(platform models.Platform, res models.SubmitResult) {
	if m != nil {
		m.Submissions.WithLabelValues(string(res.Side), string(res.Reason), string(platform)).Inc()
		m.ClassifierScore.WithLabelValues(string(res.Side)).Observe(float64(res.Score))
	}
}

// IncrementFinished records a session entering a terminal state.
func (m *Metrics) IncrementFinished(state models.CaptureState, platform models.Platform) {
	if m != nil {
		m.SessionsFinished.WithLabelValues(string(state), string(platform)).Inc()
	}
}

// ObserveOperation records the latency of one service operation.
func (m *Metrics) ObserveOperation(operation string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}
