package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/glimte/mediate-go/contracts"
)

// TimeoutMiddleware bounds how long the downstream chain may run.
type TimeoutMiddleware struct {
	timeout time.Duration
}

// NewTimeoutMiddleware creates a new timeout middleware
func NewTimeoutMiddleware(timeout time.Duration) *TimeoutMiddleware {
	return &TimeoutMiddleware{timeout: timeout}
}

// Intercept implements Middleware
func (m *TimeoutMiddleware) Intercept(ctx context.Context, msg contracts.Message, next Handler) (any, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	type outcome struct {
		result any
		err    error
	}

	done := make(chan outcome, 1)
	go func() {
		result, err := next.Handle(timeoutCtx, msg)
		done <- outcome{result: result, err: err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-timeoutCtx.Done():
		return nil, fmt.Errorf("processing timeout after %v for message %s", m.timeout, msg.GetID())
	}
}

// Name implements Middleware
func (m *TimeoutMiddleware) Name() string {
	return "TimeoutMiddleware"
}
