package pipeline

import (
	"context"
	"reflect"

	"github.com/glimte/mediate-go/contracts"
)

// Category identifies which dispatch shape a middleware chain serves.
type Category string

const (
	CategoryRequest      Category = "request"
	CategoryNotification Category = "notification"
	CategoryStream       Category = "stream"
)

// Handler is one link in a composed chain. The meaning of the returned value
// depends on the chain: a response for requests, a *FanOutResult for
// notifications, a Stream for streaming requests.
type Handler interface {
	Handle(ctx context.Context, msg contracts.Message) (any, error)
}

// HandlerFunc is a function adapter for Handler
type HandlerFunc func(ctx context.Context, msg contracts.Message) (any, error)

// Handle implements Handler
func (f HandlerFunc) Handle(ctx context.Context, msg contracts.Message) (any, error) {
	return f(ctx, msg)
}

// Middleware processes messages around the rest of the chain. Implementations
// must be stateless across dispatches: any per-call state belongs in local
// scope so one instance is safe for concurrent use across simultaneous
// dispatches.
//
// A middleware may short-circuit by returning without calling next; its
// return value then becomes the chain result.
type Middleware interface {
	// Intercept processes a message and calls the next handler in the chain
	Intercept(ctx context.Context, msg contracts.Message, next Handler) (any, error)

	// Name returns the middleware name. Names identify middleware in
	// constraint-cache keys, logs and introspection output, so each
	// registered middleware needs a distinct name.
	Name() string
}

// Ordered is implemented by middleware with an explicit position. Lower
// values run first on the way in and last on the way out; ties are broken by
// registration sequence. Middleware without Ordered sorts as order zero.
type Ordered interface {
	Order() int
}

// Constrained is implemented by middleware that only applies to message
// types satisfying every returned bound. An interface bound matches types
// implementing it; a concrete bound matches exactly that type. Returning an
// empty slice means the middleware applies to everything.
type Constrained interface {
	Constraints() []reflect.Type
}

// Conditional is implemented by middleware guarded by a runtime predicate
// independent of the message type. The predicate is evaluated once per
// dispatch immediately before the middleware would run; false skips its pre
// and post logic while leaving the rest of the chain untouched.
type Conditional interface {
	Applies(ctx context.Context, msg contracts.Message) (bool, error)
}

// MiddlewareFunc is a function-based middleware
type MiddlewareFunc struct {
	name string
	fn   func(ctx context.Context, msg contracts.Message, next Handler) (any, error)
}

// NewMiddlewareFunc creates a new function-based middleware
func NewMiddlewareFunc(name string, fn func(ctx context.Context, msg contracts.Message, next Handler) (any, error)) *MiddlewareFunc {
	return &MiddlewareFunc{name: name, fn: fn}
}

// Intercept implements Middleware
func (m *MiddlewareFunc) Intercept(ctx context.Context, msg contracts.Message, next Handler) (any, error) {
	return m.fn(ctx, msg, next)
}

// Name implements Middleware
func (m *MiddlewareFunc) Name() string {
	return m.name
}

// InterfaceOf returns the reflect.Type of the interface T, for use as a
// middleware constraint:
//
//	pipeline.WithConstraints(mw, pipeline.InterfaceOf[Auditable]())
func InterfaceOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// OrderOf returns the effective order of a middleware.
func OrderOf(mw Middleware) int {
	if o, ok := mw.(Ordered); ok {
		return o.Order()
	}
	return 0
}
