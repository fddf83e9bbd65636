package pipeline

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/glimte/mediate-go/contracts"
)

// ValidationMiddleware validates messages with struct tags before the rest
// of the chain runs. A validation failure short-circuits the chain with an
// error; the handler never executes.
type ValidationMiddleware struct {
	validate *validator.Validate
}

// ValidationOption configures the validation middleware
type ValidationOption func(*ValidationMiddleware)

// WithValidator supplies a pre-configured validator instance
func WithValidator(validate *validator.Validate) ValidationOption {
	return func(m *ValidationMiddleware) {
		m.validate = validate
	}
}

// NewValidationMiddleware creates a new validation middleware
func NewValidationMiddleware(opts ...ValidationOption) *ValidationMiddleware {
	m := &ValidationMiddleware{}
	for _, opt := range opts {
		opt(m)
	}
	if m.validate == nil {
		m.validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return m
}

// Intercept implements Middleware
func (m *ValidationMiddleware) Intercept(ctx context.Context, msg contracts.Message, next Handler) (any, error) {
	if err := m.validate.StructCtx(ctx, msg); err != nil {
		return nil, fmt.Errorf("message validation failed for %s: %w", msg.GetType(), err)
	}
	return next.Handle(ctx, msg)
}

// Name implements Middleware
func (m *ValidationMiddleware) Name() string {
	return "ValidationMiddleware"
}
