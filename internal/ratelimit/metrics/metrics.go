package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions     *prometheus.CounterVec
	StoreFailures prometheus.Counter
	SweptWindows  prometheus.Counter
}

// New registers the rate limit collectors. A nil registerer uses the default.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "medplant_ratelimit_decisions_total",
			Help: "Rate limit decisions by action class and outcome",
		}, []string{"action", "outcome"}),
		StoreFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "medplant_ratelimit_store_failures_total",
			Help: "Window store errors that caused the limiter to fail open",
		}),
		SweptWindows: f.NewCounter(prometheus.CounterOpts{
			Name: "medplant_ratelimit_swept_windows_total",
			Help: "Idle in-memory windows evicted by the sweeper",
		}),
	}
}

func (m *Metrics) RecordDecision(action string, allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "limited"
	}
	m.Decisions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) IncrementStoreFailures() {
	m.StoreFailures.Inc()
}

func (m *Metrics) AddSwept(n int) {
	m.SweptWindows.Add(float64(n))
}
