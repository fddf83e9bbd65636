package pipeline

import (
	"context"

	"github.com/glimte/mediate-go/contracts"
	"github.com/glimte/mediate-go/internal/reliability"
)

// RetryMiddleware re-runs the downstream chain according to a retry policy.
// Use it in request pipelines only: retrying a notification chain would
// re-execute the whole fan-out, which is rarely idempotent.
type RetryMiddleware struct {
	policy reliability.Policy
}

// NewRetryMiddleware creates a new retry middleware
func NewRetryMiddleware(policy reliability.Policy) *RetryMiddleware {
	return &RetryMiddleware{policy: policy}
}

// Intercept implements Middleware
func (m *RetryMiddleware) Intercept(ctx context.Context, msg contracts.Message, next Handler) (any, error) {
	var result any
	err := reliability.Execute(ctx, m.policy, func() error {
		r, err := next.Handle(ctx, msg)
		if err == nil {
			result = r
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Name implements Middleware
func (m *RetryMiddleware) Name() string {
	return "RetryMiddleware"
}
