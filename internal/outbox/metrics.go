package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the outbox publisher.
type Metrics struct {
	published       prometheus.Counter
	publishFailures prometheus.Counter
	cycleDuration   prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		published: factory.NewCounter(prometheus.CounterOpts{
			Name: "riskhub_outbox_published_total",
			Help: "Total number of outbox messages marked published.",
		}),
		publishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "riskhub_outbox_publish_failures_total",
			Help: "Total number of failed publish attempts.",
		}),
		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "riskhub_outbox_cycle_duration_seconds",
			Help:    "Duration of committed publisher poll cycles.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncPublished() {
	m.published.Inc()
}

func (m *Metrics) IncPublishFailures() {
	m.publishFailures.Inc()
}

func (m *Metrics) ObserveCycleDuration(seconds float64) {
	m.cycleDuration.Observe(seconds)
}
