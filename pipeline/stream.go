package pipeline

import (
	"context"
	"sync"
)

// Stream is a lazily-produced, single-pass sequence of items. Items are
// produced one pull at a time; no buffering happens inside the pipeline.
//
// Cancellation is cooperative: when the context passed to Next is cancelled,
// Next returns ok=false with a nil error and the stream stops producing.
// Cancellation is a normal termination reason, not a fault.
type Stream interface {
	// Next returns the next item. ok=false means the stream is exhausted;
	// a non-nil error terminates the stream as failed.
	Next(ctx context.Context) (item any, ok bool, err error)

	// Close releases producer resources. Safe to call more than once.
	Close() error
}

type funcStream struct {
	next    func(ctx context.Context) (any, bool, error)
	closeFn func() error
	mu      sync.Mutex
	closed  bool
}

// NewStream builds a stream from a pull function and an optional close
// function. The pull function is not called after exhaustion, failure,
// cancellation or Close.
func NewStream(next func(ctx context.Context) (any, bool, error), closeFn func() error) Stream {
	return &funcStream{next: next, closeFn: closeFn}
}

// Next implements Stream
func (s *funcStream) Next(ctx context.Context) (any, bool, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, false, nil
	}

	if ctx.Err() != nil {
		return nil, false, nil
	}

	item, ok, err := s.next(ctx)
	if !ok || err != nil {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
	}
	return item, ok, err
}

// Close implements Stream
func (s *funcStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.closeFn != nil {
		return s.closeFn()
	}
	return nil
}

// SliceStream returns a stream over the given items.
func SliceStream(items ...any) Stream {
	index := 0
	return NewStream(func(ctx context.Context) (any, bool, error) {
		if index >= len(items) {
			return nil, false, nil
		}
		item := items[index]
		index++
		return item, true, nil
	}, nil)
}

// MapStream transforms items one pull at a time without draining the inner
// stream. A transform error terminates the stream as failed.
func MapStream(inner Stream, transform func(item any) (any, error)) Stream {
	return NewStream(func(ctx context.Context) (any, bool, error) {
		item, ok, err := inner.Next(ctx)
		if !ok || err != nil {
			return nil, false, err
		}
		mapped, err := transform(item)
		if err != nil {
			return nil, false, err
		}
		return mapped, true, nil
	}, inner.Close)
}

// Collect drains a stream into a slice. Intended for callers and tests, not
// for middleware: middleware must not eagerly drain the sequences it wraps.
func Collect(ctx context.Context, s Stream) ([]any, error) {
	defer s.Close()

	var items []any
	for {
		item, ok, err := s.Next(ctx)
		if err != nil {
			return items, err
		}
		if !ok {
			return items, nil
		}
		items = append(items, item)
	}
}
