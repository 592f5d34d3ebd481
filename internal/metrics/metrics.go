package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DispatcherMetrics makes outbox delivery visible to operators; poison
// events in particular must never be silently dropped.
type DispatcherMetrics struct {
	Processed prometheus.Counter
	Failed    *prometheus.CounterVec
	Poisoned  prometheus.Counter
}

func NewDispatcherMetrics(reg prometheus.Registerer) *DispatcherMetrics {
	m := &DispatcherMetrics{
		Processed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vendas",
			Subsystem: "outbox",
			Name:      "events_processed_total",
			Help:      "Total number of outbox events delivered downstream.",
		}),
		Failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vendas",
			Subsystem: "outbox",
			Name:      "events_failed_total",
			Help:      "Total number of outbox dispatch failures.",
		}, []string{"event_type"}),
		Poisoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vendas",
			Subsystem: "outbox",
			Name:      "events_poisoned_total",
			Help:      "Outbox events that reached the retry ceiling and need operator attention.",
		}),
	}
	reg.MustRegister(m.Processed, m.Failed, m.Poisoned)
	return m
}
