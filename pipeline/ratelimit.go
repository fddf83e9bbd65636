package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/glimte/mediate-go/contracts"
)

// RateLimitMiddleware applies a token-bucket limit per message type.
// Over-limit dispatches fail immediately rather than queue.
type RateLimitMiddleware struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewRateLimitMiddleware creates a middleware allowing limit events per
// second with the given burst, tracked per message type.
func NewRateLimitMiddleware(limit rate.Limit, burst int) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// Intercept implements Middleware
func (m *RateLimitMiddleware) Intercept(ctx context.Context, msg contracts.Message, next Handler) (any, error) {
	if !m.limiterFor(msg.GetType()).Allow() {
		return nil, fmt.Errorf("rate limit exceeded for message type %s", msg.GetType())
	}
	return next.Handle(ctx, msg)
}

// Name implements Middleware
func (m *RateLimitMiddleware) Name() string {
	return "RateLimitMiddleware"
}

func (m *RateLimitMiddleware) limiterFor(messageType string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, exists := m.limiters[messageType]
	if !exists {
		limiter = rate.NewLimiter(m.limit, m.burst)
		m.limiters[messageType] = limiter
	}
	return limiter
}
