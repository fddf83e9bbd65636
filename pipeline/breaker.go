package pipeline

import (
	"context"

	"github.com/glimte/mediate-go/contracts"
	"github.com/glimte/mediate-go/internal/reliability"
)

// CircuitBreakerMiddleware stops calling a failing downstream chain until
// its circuit breaker's cooldown elapses.
type CircuitBreakerMiddleware struct {
	breaker *reliability.CircuitBreaker
}

// NewCircuitBreakerMiddleware creates a middleware around the given breaker.
// Passing nil uses a breaker with default thresholds.
func NewCircuitBreakerMiddleware(breaker *reliability.CircuitBreaker) *CircuitBreakerMiddleware {
	if breaker == nil {
		breaker = reliability.NewCircuitBreaker()
	}
	return &CircuitBreakerMiddleware{breaker: breaker}
}

// Intercept implements Middleware
func (m *CircuitBreakerMiddleware) Intercept(ctx context.Context, msg contracts.Message, next Handler) (any, error) {
	var result any
	err := m.breaker.Execute(ctx, func() error {
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
func (m *CircuitBreakerMiddleware) Name() string {
	return "CircuitBreakerMiddleware"
}
