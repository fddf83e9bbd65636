package mediator

import (
	"context"
	"fmt"
	"time"

	"github.com/glimte/mediate-go/contracts"
	"github.com/glimte/mediate-go/observe"
	"github.com/glimte/mediate-go/pipeline"
)

// SendStream dispatches a streaming request and returns its lazy result
// sequence. Handler resolution follows the same exactly-one rule as Send.
//
// Middleware wraps the stream without draining it; items are produced one
// pull at a time. Cancelling the context passed to Next ends the stream
// cooperatively: Next reports exhaustion, not an error, and items already
// yielded stay valid.
func (m *Mediator) SendStream(ctx context.Context, req contracts.Request) (pipeline.Stream, error) {
	key, name, err := messageIdentity(req)
	if err != nil {
		return nil, err
	}

	handlers := m.registry.ResolveStreamHandlers(key)
	switch len(handlers) {
	case 1:
	case 0:
		return nil, &NoHandlerError{MessageType: name}
	default:
		return nil, &AmbiguousHandlerError{MessageType: name, Count: len(handlers)}
	}

	middleware, err := m.middlewareFor(pipeline.CategoryStream, req)
	if err != nil {
		return nil, err
	}

	handler := handlers[0]
	terminal := pipeline.HandlerFunc(func(ctx context.Context, msg contracts.Message) (any, error) {
		return handler.Handle(ctx, msg.(contracts.Request))
	})

	start := time.Now()
	result, err := pipeline.Compose(middleware, terminal).Handle(ctx, req)
	duration := time.Since(start)

	m.record(observe.Event{
		Kind:        observe.EventStreamOpened,
		MessageType: name,
		MessageID:   req.GetID(),
		Duration:    duration,
		Err:         err,
	})

	if err != nil {
		return nil, err
	}

	stream, ok := result.(pipeline.Stream)
	if !ok {
		return nil, fmt.Errorf("%w: got %T for request type %s", ErrInvalidStreamResult, result, name)
	}

	m.logger.Debug("stream opened", "messageType", name, "messageId", req.GetID())

	// Handlers and middleware may return their own Stream implementations.
	// Re-wrap so cancellation is checked on every pull regardless of how the
	// producer behaves.
	return pipeline.NewStream(stream.Next, stream.Close), nil
}
