package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions     *prometheus.CounterVec
	StoreErrors   prometheus.Counter
	FallbackState prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "compliance_ratelimit_decisions_total",
			Help: "Rate limit decisions by endpoint class and outcome",
		}, []string{"class", "outcome"}),
		StoreErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "compliance_ratelimit_store_errors_total",
			Help: "Bucket store failures; requests fail open or use the fallback store",
		}),
		FallbackState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "compliance_ratelimit_fallback_active",
			Help: "1 while the in-memory fallback limiter is serving, else 0",
		}),
	}
}

func (m *Metrics) RecordDecision(class string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !allowed {
		outcome = "limited"
	}
	m.Decisions.WithLabelValues(class, outcome).Inc()
}

func (m *Metrics) IncStoreErrors() {
	if m != nil {
		m.StoreErrors.Inc()
	}
}

func (m *Metrics) SetFallbackActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.FallbackState.Set(1)
		return
	}
	m.FallbackState.Set(0)
}
