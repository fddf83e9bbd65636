package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream(t *testing.T) {
	t.Run("SliceStream yields items in order", func(t *testing.T) {
		s := SliceStream("a", "b", "c")

		items, err := Collect(context.Background(), s)

		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b", "c"}, items)
	})

	t.Run("exhausted stream keeps reporting ok=false", func(t *testing.T) {
		s := SliceStream(1)
		ctx := context.Background()

		_, ok, err := s.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)

		for i := 0; i < 3; i++ {
			_, ok, err = s.Next(ctx)
			require.NoError(t, err)
			assert.False(t, ok)
		}
	})

	t.Run("items are produced one pull at a time", func(t *testing.T) {
		produced := 0
		s := NewStream(func(ctx context.Context) (any, bool, error) {
			produced++
			return produced, true, nil
		}, nil)
		ctx := context.Background()

		assert.Equal(t, 0, produced)

		_, _, err := s.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, produced)

		_, _, err = s.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, produced)
	})

	t.Run("producer error terminates the stream as failed", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		s := NewStream(func(ctx context.Context) (any, bool, error) {
			calls++
			if calls == 2 {
				return nil, false, boom
			}
			return calls, true, nil
		}, nil)
		ctx := context.Background()

		item, ok, err := s.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 1, item)

		_, _, err = s.Next(ctx)
		assert.ErrorIs(t, err, boom)

		// The producer is not called again after failure.
		_, ok, err = s.Next(ctx)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 2, calls)
	})

	t.Run("cancellation ends the stream without error", func(t *testing.T) {
		s := SliceStream(1, 2, 3)
		ctx, cancel := context.WithCancel(context.Background())

		item, ok, err := s.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 1, item)

		cancel()

		_, ok, err = s.Next(ctx)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Close is idempotent and runs the close function once", func(t *testing.T) {
		closed := 0
		s := NewStream(func(ctx context.Context) (any, bool, error) {
			return nil, false, nil
		}, func() error {
			closed++
			return nil
		})

		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
		assert.Equal(t, 1, closed)
	})

	t.Run("Next after Close reports exhaustion", func(t *testing.T) {
		s := SliceStream(1, 2)
		require.NoError(t, s.Close())

		_, ok, err := s.Next(context.Background())

		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestMapStream(t *testing.T) {
	t.Run("transforms items lazily", func(t *testing.T) {
		produced := 0
		inner := NewStream(func(ctx context.Context) (any, bool, error) {
			if produced >= 3 {
				return nil, false, nil
			}
			produced++
			return produced, true, nil
		}, nil)

		mapped := MapStream(inner, func(item any) (any, error) {
			return fmt.Sprintf("item-%d", item), nil
		})

		item, ok, err := mapped.Next(context.Background())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "item-1", item)
		assert.Equal(t, 1, produced)
	})

	t.Run("transform error fails the stream", func(t *testing.T) {
		mapped := MapStream(SliceStream(1, 2), func(item any) (any, error) {
			return nil, errors.New("bad item")
		})

		_, _, err := mapped.Next(context.Background())

		assert.Error(t, err)
	})

	t.Run("closing the mapped stream closes the inner stream", func(t *testing.T) {
		closed := false
		inner := NewStream(func(ctx context.Context) (any, bool, error) {
			return nil, false, nil
		}, func() error {
			closed = true
			return nil
		})

		mapped := MapStream(inner, func(item any) (any, error) { return item, nil })

		require.NoError(t, mapped.Close())
		assert.True(t, closed)
	})
}
