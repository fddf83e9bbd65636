package reliability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker(t *testing.T) {
	boom := errors.New("downstream broken")
	fail := func() error { return boom }
	succeed := func() error { return nil }

	t.Run("starts closed and passes operations through", func(t *testing.T) {
		cb := NewCircuitBreaker()

		assert.Equal(t, StateClosed, cb.State())
		assert.NoError(t, cb.Execute(context.Background(), succeed))
	})

	t.Run("opens after the failure threshold", func(t *testing.T) {
		cb := NewCircuitBreaker(WithFailureThreshold(3), WithCooldown(time.Minute))

		for i := 0; i < 3; i++ {
			assert.ErrorIs(t, cb.Execute(context.Background(), fail), boom)
		}

		assert.Equal(t, StateOpen, cb.State())
		assert.ErrorIs(t, cb.Execute(context.Background(), succeed), ErrOpen)
	})

	t.Run("a success resets the failure count while closed", func(t *testing.T) {
		cb := NewCircuitBreaker(WithFailureThreshold(2), WithCooldown(time.Minute))

		require.Error(t, cb.Execute(context.Background(), fail))
		require.NoError(t, cb.Execute(context.Background(), succeed))
		require.Error(t, cb.Execute(context.Background(), fail))

		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("half-opens after the cooldown and closes on enough successes", func(t *testing.T) {
		cb := NewCircuitBreaker(
			WithFailureThreshold(1),
			WithSuccessThreshold(2),
			WithCooldown(10*time.Millisecond),
			WithMaxProbes(5),
		)

		require.Error(t, cb.Execute(context.Background(), fail))
		require.Equal(t, StateOpen, cb.State())

		time.Sleep(15 * time.Millisecond)
		assert.Equal(t, StateHalfOpen, cb.State())

		require.NoError(t, cb.Execute(context.Background(), succeed))
		require.NoError(t, cb.Execute(context.Background(), succeed))

		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("a half-open failure reopens the circuit", func(t *testing.T) {
		cb := NewCircuitBreaker(
			WithFailureThreshold(1),
			WithCooldown(10*time.Millisecond),
		)

		require.Error(t, cb.Execute(context.Background(), fail))
		time.Sleep(15 * time.Millisecond)
		require.Equal(t, StateHalfOpen, cb.State())

		require.ErrorIs(t, cb.Execute(context.Background(), fail), boom)

		assert.Equal(t, StateOpen, cb.State())
	})

	t.Run("half-open limits concurrent probes", func(t *testing.T) {
		cb := NewCircuitBreaker(
			WithFailureThreshold(1),
			WithSuccessThreshold(10),
			WithCooldown(10*time.Millisecond),
			WithMaxProbes(2),
		)

		require.Error(t, cb.Execute(context.Background(), fail))
		time.Sleep(15 * time.Millisecond)

		require.NoError(t, cb.Execute(context.Background(), succeed))
		require.NoError(t, cb.Execute(context.Background(), succeed))

		assert.ErrorIs(t, cb.Execute(context.Background(), succeed), ErrOpen)
	})

	t.Run("cancelled context short-circuits without touching the breaker", func(t *testing.T) {
		cb := NewCircuitBreaker()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := cb.Execute(ctx, fail)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("State strings are stable", func(t *testing.T) {
		assert.Equal(t, "closed", StateClosed.String())
		assert.Equal(t, "open", StateOpen.String())
		assert.Equal(t, "half-open", StateHalfOpen.String())
	})
}
