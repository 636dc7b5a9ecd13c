package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts pipeline outcomes across all entities.
type Metrics struct {
	Outcomes *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "medplant_pipeline_outcomes_total",
			Help: "Pipeline operations by entity, operation and outcome",
		}, []string{"entity", "op", "outcome"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medplant_pipeline_duration_seconds",
			Help:    "Pipeline operation latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"entity", "op"}),
	}
}

func (m *Metrics) observe(entity, op, outcome string, seconds float64) {
	m.Outcomes.WithLabelValues(entity, op, outcome).Inc()
	m.Duration.WithLabelValues(entity, op).Observe(seconds)
}
