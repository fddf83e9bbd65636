package pipeline

import (
	"context"
	"reflect"

	"github.com/glimte/mediate-go/contracts"
)

// decorated wraps a middleware with explicit order, constraints or a
// predicate while delegating to whatever the inner middleware declares for
// the other capabilities.
type decorated struct {
	inner       Middleware
	order       int
	hasOrder    bool
	constraints []reflect.Type
	predicate   func(ctx context.Context, msg contracts.Message) (bool, error)
}

// WithOrder gives a middleware an explicit position in the chain.
func WithOrder(mw Middleware, order int) Middleware {
	d := decorate(mw)
	d.order = order
	d.hasOrder = true
	return d
}

// WithConstraints restricts a middleware to message types satisfying every
// given bound. Bounds are typically built with InterfaceOf.
func WithConstraints(mw Middleware, constraints ...reflect.Type) Middleware {
	d := decorate(mw)
	d.constraints = append(d.constraints, constraints...)
	return d
}

// WithPredicate guards a middleware with a runtime condition evaluated once
// per dispatch.
func WithPredicate(mw Middleware, predicate func(ctx context.Context, msg contracts.Message) (bool, error)) Middleware {
	d := decorate(mw)
	d.predicate = predicate
	return d
}

func decorate(mw Middleware) *decorated {
	if d, ok := mw.(*decorated); ok {
		return d
	}
	d := &decorated{inner: mw}
	if o, ok := mw.(Ordered); ok {
		d.order = o.Order()
		d.hasOrder = true
	}
	if c, ok := mw.(Constrained); ok {
		d.constraints = append(d.constraints, c.Constraints()...)
	}
	return d
}

// Name implements Middleware
func (d *decorated) Name() string {
	return d.inner.Name()
}

// Intercept implements Middleware
func (d *decorated) Intercept(ctx context.Context, msg contracts.Message, next Handler) (any, error) {
	return d.inner.Intercept(ctx, msg, next)
}

// Order implements Ordered
func (d *decorated) Order() int {
	return d.order
}

// Constraints implements Constrained
func (d *decorated) Constraints() []reflect.Type {
	return d.constraints
}

// Applies implements Conditional
func (d *decorated) Applies(ctx context.Context, msg contracts.Message) (bool, error) {
	if d.predicate == nil {
		if c, ok := d.inner.(Conditional); ok {
			return c.Applies(ctx, msg)
		}
		return true, nil
	}
	return d.predicate(ctx, msg)
}

// IsConditional reports whether a middleware carries a runtime predicate.
func IsConditional(mw Middleware) bool {
	if d, ok := mw.(*decorated); ok {
		return d.predicate != nil || IsConditional(d.inner)
	}
	_, ok := mw.(Conditional)
	return ok
}

// ConstraintsOf returns the type bounds a middleware declares, or nil.
func ConstraintsOf(mw Middleware) []reflect.Type {
	if c, ok := mw.(Constrained); ok {
		return c.Constraints()
	}
	return nil
}
