package contracts

import (
	"time"
)

// Message is the base interface for everything dispatched through the mediator.
type Message interface {
	GetID() string
	GetTimestamp() time.Time
	GetType() string
	GetCorrelationID() string
	SetCorrelationID(correlationID string)
}

// Request is a single-consumer message. Exactly one handler must be
// registered for its type and dispatching it produces one response value.
type Request interface {
	Message
	GetReplyTo() string
}

// Notification is a multi-consumer message. Zero or more handlers and
// subscribers may consume it; it produces no response value.
type Notification interface {
	Message
	GetSource() string
}
