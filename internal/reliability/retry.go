package reliability

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Policy decides whether a failed operation should be attempted again.
type Policy interface {
	// Next reports whether another attempt should be made after err failed
	// the given zero-based attempt, and how long to wait before it.
	Next(attempt int, err error) (time.Duration, bool)
}

// ExponentialBackoff grows the delay geometrically between attempts.
type ExponentialBackoff struct {
	Initial  time.Duration
	Max      time.Duration
	Factor   float64
	Attempts int
	Jitter   bool
}

// NewExponentialBackoff creates an exponential backoff policy with jitter enabled.
func NewExponentialBackoff(initial, max time.Duration, factor float64, attempts int) *ExponentialBackoff {
	return &ExponentialBackoff{
		Initial:  initial,
		Max:      max,
		Factor:   factor,
		Attempts: attempts,
		Jitter:   true,
	}
}

// Next implements Policy
func (p *ExponentialBackoff) Next(attempt int, err error) (time.Duration, bool) {
	if attempt >= p.Attempts || IsPermanent(err) {
		return 0, false
	}

	delay := float64(p.Initial) * math.Pow(p.Factor, float64(attempt))
	if delay > float64(p.Max) {
		delay = float64(p.Max)
	}

	if p.Jitter {
		// ±15% around the computed delay
		delay += (rand.Float64() - 0.5) * 0.3 * delay
	}

	return time.Duration(delay), true
}

// FixedDelay waits the same interval between attempts.
type FixedDelay struct {
	Delay    time.Duration
	Attempts int
}

// NewFixedDelay creates a fixed delay policy
func NewFixedDelay(delay time.Duration, attempts int) *FixedDelay {
	return &FixedDelay{Delay: delay, Attempts: attempts}
}

// Next implements Policy
func (p *FixedDelay) Next(attempt int, err error) (time.Duration, bool) {
	if attempt >= p.Attempts || IsPermanent(err) {
		return 0, false
	}
	return p.Delay, true
}

// Execute runs op, retrying per the policy until it succeeds, the policy
// gives up, or the context is cancelled.
func Execute(ctx context.Context, policy Policy, op func() error) error {
	var lastErr error

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		delay, retry := policy.Next(attempt, lastErr)
		if !retry {
			return lastErr
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Permanent wraps an error to mark it as not worth retrying.
type Permanent struct {
	Err error
}

// Error implements error
func (p *Permanent) Error() string {
	return p.Err.Error()
}

// Unwrap returns the wrapped error
func (p *Permanent) Unwrap() error {
	return p.Err
}

// IsPermanent reports whether err is marked permanent.
func IsPermanent(err error) bool {
	var p *Permanent
	return errors.As(err, &p)
}
