package compliance

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeRecorded = "recorded"
	outcomeFailed   = "failed"
	outcomeRejected = "rejected"
)

type Metrics struct {
	Events        *prometheus.CounterVec
	WriteDuration prometheus.Histogram
}

// NewMetrics registers the compliance audit collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "compliance_audit_compliance_events_total",
			Help: "Compliance audit events by outcome: recorded, failed (store error) or rejected (invalid event).",
		}, []string{"outcome"}),
		WriteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "compliance_audit_compliance_write_seconds",
			Help:    "Latency of synchronous compliance audit writes.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),
	}
}

func (m *Metrics) observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(outcome).Inc()
	if outcome != outcomeRejected {
		m.WriteDuration.Observe(elapsed.Seconds())
	}
}
