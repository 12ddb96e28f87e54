package gate

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts gate decisions by terminal outcome and trust tier.
type Metrics struct {
	decisions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civicband",
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Request admission decisions by outcome and trust tier.",
		}, []string{"outcome", "tier"}),
	}
	if reg != nil {
		reg.MustRegister(m.decisions)
	}
	return m
}

func (m *Metrics) observe(outcome, tier string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome, tier).Inc()
}
