package observe

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink exports dispatch events as Prometheus metrics.
type PrometheusSink struct {
	events    *prometheus.CounterVec
	failures  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewPrometheusSink creates a sink that registers its collectors with reg.
// Pass prometheus.DefaultRegisterer to use the default registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	s := &PrometheusSink{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediate",
			Name:      "dispatch_events_total",
			Help:      "Dispatch events by kind, message type and outcome.",
		}, []string{"kind", "message_type", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediate",
			Name:      "consumer_failures_total",
			Help:      "Failed notification consumers by message type.",
		}, []string{"message_type"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mediate",
			Name:      "dispatch_duration_seconds",
			Help:      "Dispatch duration by kind and message type.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "message_type"}),
	}

	for _, c := range []prometheus.Collector{s.events, s.failures, s.durations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Record implements Sink
func (s *PrometheusSink) Record(event Event) {
	outcome := "success"
	if event.Err != nil || event.Failed > 0 {
		outcome = "failure"
	}

	s.events.WithLabelValues(string(event.Kind), event.MessageType, outcome).Inc()

	if event.Kind == EventConsumerFailed {
		s.failures.WithLabelValues(event.MessageType).Inc()
	}

	if event.Duration > 0 {
		s.durations.WithLabelValues(string(event.Kind), event.MessageType).Observe(event.Duration.Seconds())
	}
}
