package mediator

import (
	"context"
	"fmt"

	"github.com/glimte/mediate-go/contracts"
	"github.com/glimte/mediate-go/pipeline"
)

// TypedRequestHandler handles a concrete request type and returns a concrete
// response type, without casting at the call sites.
type TypedRequestHandler[T contracts.Request, R any] interface {
	Handle(ctx context.Context, req T) (R, error)
}

// TypedStreamHandler handles a concrete request type and returns a lazy
// stream.
type TypedStreamHandler[T contracts.Request] interface {
	Handle(ctx context.Context, req T) (pipeline.Stream, error)
}

// TypedNotificationHandler consumes a concrete notification type.
type TypedNotificationHandler[T contracts.Notification] interface {
	Handle(ctx context.Context, n T) error
}

// RequestHandlerOf adapts a typed request handler to the untyped
// RequestHandler interface used by the registry. Dispatch guarantees the
// concrete type matches the registered prototype, so a failed assertion
// means a registration mistake and is reported as an error.
func RequestHandlerOf[T contracts.Request, R any](h TypedRequestHandler[T, R]) RequestHandler {
	return RequestHandlerFunc(func(ctx context.Context, req contracts.Request) (any, error) {
		typed, ok := req.(T)
		if !ok {
			return nil, fmt.Errorf("handler expects %T, got %T", typed, req)
		}
		return h.Handle(ctx, typed)
	})
}

// StreamHandlerOf adapts a typed stream handler to the untyped StreamHandler
// interface.
func StreamHandlerOf[T contracts.Request](h TypedStreamHandler[T]) StreamHandler {
	return StreamHandlerFunc(func(ctx context.Context, req contracts.Request) (pipeline.Stream, error) {
		typed, ok := req.(T)
		if !ok {
			return nil, fmt.Errorf("handler expects %T, got %T", typed, req)
		}
		return h.Handle(ctx, typed)
	})
}

// NotificationHandlerOf adapts a typed notification handler to the untyped
// NotificationHandler interface.
func NotificationHandlerOf[T contracts.Notification](h TypedNotificationHandler[T]) NotificationHandler {
	return NotificationHandlerFunc(func(ctx context.Context, n contracts.Notification) error {
		typed, ok := n.(T)
		if !ok {
			return fmt.Errorf("handler expects %T, got %T", typed, n)
		}
		return h.Handle(ctx, typed)
	})
}

// TypedRequestFunc adapts a plain function over concrete types.
func TypedRequestFunc[T contracts.Request, R any](fn func(ctx context.Context, req T) (R, error)) RequestHandler {
	return RequestHandlerOf[T, R](typedRequestFunc[T, R](fn))
}

type typedRequestFunc[T contracts.Request, R any] func(ctx context.Context, req T) (R, error)

func (f typedRequestFunc[T, R]) Handle(ctx context.Context, req T) (R, error) {
	return f(ctx, req)
}

// TypedNotificationFunc adapts a plain function over a concrete notification
// type.
func TypedNotificationFunc[T contracts.Notification](fn func(ctx context.Context, n T) error) NotificationHandler {
	return NotificationHandlerOf[T](typedNotificationFunc[T](fn))
}

type typedNotificationFunc[T contracts.Notification] func(ctx context.Context, n T) error

func (f typedNotificationFunc[T]) Handle(ctx context.Context, n T) error {
	return f(ctx, n)
}
