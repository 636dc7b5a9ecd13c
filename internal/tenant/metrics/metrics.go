package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		Decisions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "medplant_tenant_scope_decisions_total",
			Help: "Plant scoping decisions by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) RecordDecision(outcome string) {
	m.Decisions.WithLabelValues(outcome).Inc()
}
