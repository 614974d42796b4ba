package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for identity verification.
type Metrics struct {
	Verifications  *prometheus.CounterVec
	VerifyDuration prometheus.Histogram
	CacheLookups   *prometheus.CounterVec
	BatchSize      prometheus.Histogram
}

// New registers identity metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "compliance_identity_verifications_total",
			Help: "Identity numbers verified, by outcome",
		}, []string{"outcome"}),
		VerifyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "compliance_identity_verify_duration_seconds",
			Help:    "Duration of a single verification including persistence and audit",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "compliance_identity_cache_lookups_total",
			Help: "Result cache lookups, by result (hit, miss, error)",
		}, []string{"result"}),
		BatchSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "compliance_identity_batch_size",
			Help:    "Number of identity numbers per batch request",
			Buckets: []float64{1, 5, 10, 25, 50, 100},
		}),
	}
}

// ObserveVerification records one verification outcome and its duration.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveVerification(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(outcome).Inc()
	m.VerifyDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveBatchSize(n int) {
	if m == nil {
		return
	}
	m.BatchSize.Observe(float64(n))
}
