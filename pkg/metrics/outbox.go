package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics records publisher progress for the outbox worker.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	backlog   prometheus.Gauge
}

// NewOutboxMetrics registers outbox publisher metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox events published to Pub/Sub.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Outbox publish attempts that errored.",
	}, []string{"event_type"})
	backlog := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_backlog",
		Help: "Unpublished outbox rows seen on the last poll.",
	})
	reg.MustRegister(published, failed, backlog)
	return &OutboxMetrics{
		published: published,
		failed:    failed,
		backlog:   backlog,
	}
}

// IncPublished increments the published counter for an event type.
func (o *OutboxMetrics) IncPublished(eventType string) {
	if o == nil || o.published == nil {
		return
	}
	o.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailed increments the failure counter for an event type.
func (o *OutboxMetrics) IncFailed(eventType string) {
	if o == nil || o.failed == nil {
		return
	}
	o.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// SetBacklog records the pending row count from the last poll.
func (o *OutboxMetrics) SetBacklog(n int) {
	if o == nil || o.backlog == nil {
		return
	}
	o.backlog.Set(float64(n))
}
