// Package observe defines the Sink capability the dispatch runtime reports
// timing and outcome events to, together with a few ready-made sinks:
// a slog-backed sink, an in-memory statistics collector, and a Prometheus
// exporter.
//
// Record is fire-and-forget: the mediator guards every call so a
// misbehaving sink can never fail a dispatch.
package observe

import (
	"log/slog"
	"time"
)

// EventKind identifies what a recorded event describes.
type EventKind string

const (
	// EventRequestCompleted is recorded after every Send, success or failure.
	EventRequestCompleted EventKind = "request.completed"
	// EventStreamOpened is recorded when SendStream hands a stream to the caller.
	EventStreamOpened EventKind = "stream.opened"
	// EventNotificationPublished is recorded with the aggregate fan-out outcome.
	EventNotificationPublished EventKind = "notification.published"
	// EventConsumerFailed is recorded per failed notification consumer.
	EventConsumerFailed EventKind = "consumer.failed"
	// EventPipelineWarning is recorded for non-fatal configuration problems,
	// such as an unresolvable middleware constraint in lenient mode.
	EventPipelineWarning EventKind = "pipeline.warning"
)

// Event is a single timing/outcome record emitted by the dispatch runtime.
type Event struct {
	Kind        EventKind
	MessageType string
	MessageID   string
	Consumer    string
	Duration    time.Duration
	Succeeded   int
	Failed      int
	Err         error
	Detail      string
}

// Sink accepts dispatch events. Implementations must be safe for concurrent
// use and should never block the dispatch path.
type Sink interface {
	Record(event Event)
}

// SinkFunc is a function adapter for Sink
type SinkFunc func(event Event)

// Record implements Sink
func (f SinkFunc) Record(event Event) {
	f(event)
}

// NopSink discards all events.
type NopSink struct{}

// Record implements Sink
func (NopSink) Record(Event) {}

// SlogSink writes events to a structured logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink backed by the given logger
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Record implements Sink
func (s *SlogSink) Record(event Event) {
	attrs := []any{
		"kind", string(event.Kind),
		"messageType", event.MessageType,
	}
	if event.MessageID != "" {
		attrs = append(attrs, "messageId", event.MessageID)
	}
	if event.Consumer != "" {
		attrs = append(attrs, "consumer", event.Consumer)
	}
	if event.Duration > 0 {
		attrs = append(attrs, "duration", event.Duration)
	}
	if event.Kind == EventNotificationPublished {
		attrs = append(attrs, "succeeded", event.Succeeded, "failed", event.Failed)
	}
	if event.Detail != "" {
		attrs = append(attrs, "detail", event.Detail)
	}

	switch {
	case event.Err != nil:
		attrs = append(attrs, "error", event.Err)
		s.logger.Error("dispatch event", attrs...)
	case event.Kind == EventPipelineWarning:
		s.logger.Warn("dispatch event", attrs...)
	default:
		s.logger.Info("dispatch event", attrs...)
	}
}
