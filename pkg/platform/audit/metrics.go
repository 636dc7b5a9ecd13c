package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	pathSink     = "sink"
	pathQueue    = "queue"
	pathFallback = "fallback"
)

type Metrics struct {
	Writes *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		Writes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "medplant_audit_writes_total",
			Help: "Audit entries by the path that accepted them (sink, queue, fallback)",
		}, []string{"path"}),
	}
}

func (m *Metrics) RecordWrite(path string) {
	m.Writes.WithLabelValues(path).Inc()
}
