package mediator

import (
	"context"
	"fmt"
	"reflect"

	"github.com/glimte/mediate-go/contracts"
	"github.com/glimte/mediate-go/pipeline"
)

// RequestHandler processes one request type and returns its response.
type RequestHandler interface {
	Handle(ctx context.Context, req contracts.Request) (any, error)
}

// RequestHandlerFunc is a function adapter for RequestHandler
type RequestHandlerFunc func(ctx context.Context, req contracts.Request) (any, error)

// Handle implements RequestHandler
func (f RequestHandlerFunc) Handle(ctx context.Context, req contracts.Request) (any, error) {
	return f(ctx, req)
}

// StreamHandler processes one request type and returns a lazy stream.
type StreamHandler interface {
	Handle(ctx context.Context, req contracts.Request) (pipeline.Stream, error)
}

// StreamHandlerFunc is a function adapter for StreamHandler
type StreamHandlerFunc func(ctx context.Context, req contracts.Request) (pipeline.Stream, error)

// Handle implements StreamHandler
func (f StreamHandlerFunc) Handle(ctx context.Context, req contracts.Request) (pipeline.Stream, error) {
	return f(ctx, req)
}

// NotificationHandler consumes one notification type. Automatic handlers and
// runtime subscribers both implement this interface.
type NotificationHandler interface {
	Handle(ctx context.Context, n contracts.Notification) error
}

// NotificationHandlerFunc is a function adapter for NotificationHandler
type NotificationHandlerFunc func(ctx context.Context, n contracts.Notification) error

// Handle implements NotificationHandler
func (f NotificationHandlerFunc) Handle(ctx context.Context, n contracts.Notification) error {
	return f(ctx, n)
}

// Named is implemented by handlers that want a stable identity in fan-out
// results, logs and previews. Handlers without it are identified by their
// Go type.
type Named interface {
	Name() string
}

// consumerName derives the reported identity of a handler or subscriber.
func consumerName(v any) string {
	if n, ok := v.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", v)
}

// MessageKey derives the registration key for a message value: the package
// path of its type followed by the type name. Qualifying by package path
// keeps same-named message types from different packages apart; the bare
// type name is still what appears in logs and errors.
func MessageKey(msg contracts.Message) (string, error) {
	key, _, err := messageIdentity(msg)
	return key, err
}

// messageIdentity derives the registration key and the short display name
// for a message value.
func messageIdentity(msg contracts.Message) (key, name string, err error) {
	t, err := messageType(msg)
	if err != nil {
		return "", "", err
	}
	return t.PkgPath() + "." + t.Name(), t.Name(), nil
}

func messageType(msg contracts.Message) (reflect.Type, error) {
	if msg == nil {
		return nil, fmt.Errorf("message cannot be nil")
	}

	t := reflect.TypeOf(msg)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Name() == "" {
		return nil, fmt.Errorf("message type must be a named type, got %v", t)
	}
	return t, nil
}
