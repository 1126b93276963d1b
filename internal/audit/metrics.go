package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for audit emission.
type Metrics struct {
	eventsEmitted  prometheus.Counter
	appendFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		eventsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "riskhub_audit_events_emitted_total",
			Help: "Total number of audit events appended.",
		}),
		appendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "riskhub_audit_append_failures_total",
			Help: "Total number of audit appends that failed.",
		}),
	}
}

func (m *Metrics) IncEventsEmitted() {
	m.eventsEmitted.Inc()
}

func (m *Metrics) IncAppendFailures() {
	m.appendFailures.Inc()
}
