package ops

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of a Track call.
const (
	outcomeTracked    = "tracked"
	outcomeSampledOut = "sampled_out"
	outcomeGated      = "gated"
	outcomeFailed     = "failed"
)

type Metrics struct {
	Events   *prometheus.CounterVec
	GateOpen prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "compliance_audit_ops_events_total",
			Help: "Ops audit events by outcome: tracked, sampled_out, gated (store breaker open) or failed.",
		}, []string{"outcome"}),
		GateOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "compliance_audit_ops_store_gate_open",
			Help: "1 while ops audit writes are suspended after repeated store failures.",
		}),
	}
}

func (m *Metrics) count(outcome string) {
	if m != nil {
		m.Events.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) gateState(open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.GateOpen.Set(v)
}
