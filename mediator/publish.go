package mediator

import (
	"context"
	"fmt"
	"time"

	"github.com/glimte/mediate-go/contracts"
	"github.com/glimte/mediate-go/observe"
	"github.com/glimte/mediate-go/pipeline"
)

// publishOptions configures one Publish call
type publishOptions struct {
	timeout time.Duration
}

// PublishOption configures a single Publish call
type PublishOption func(*publishOptions)

// WithFanOutTimeout bounds this publish's fan-out. Consumers still running
// when it expires are reported as failed with the context error; they keep
// running until they observe cancellation.
func WithFanOutTimeout(timeout time.Duration) PublishOption {
	return func(o *publishOptions) {
		o.timeout = timeout
	}
}

// consumer pairs a notification handler with its reported identity.
type consumer struct {
	name    string
	handler NotificationHandler
}

// Publish dispatches a notification to every automatic handler registered
// for its type and every live subscriber matching its runtime type.
// Consumers run concurrently, each under its own failure boundary: a
// consumer error or panic is captured in the returned FanOutResult and
// never affects its siblings or the publisher.
//
// Publish itself only returns an error when building or running the
// pipeline fails: handler resolution, a malformed constraint in strict
// mode, or a middleware failure. Middleware is trusted infrastructure, so a
// middleware error during the pre or post phase aborts the whole publish
// rather than being isolated like a consumer failure.
//
// Zero consumers is a valid no-op. Callers wanting fail-fast semantics
// check FanOutResult.Err.
func (m *Mediator) Publish(ctx context.Context, n contracts.Notification, opts ...PublishOption) (*pipeline.FanOutResult, error) {
	key, name, err := messageIdentity(n)
	if err != nil {
		return nil, err
	}

	options := publishOptions{timeout: m.publishTimeout}
	for _, opt := range opts {
		opt(&options)
	}

	consumers := m.resolveConsumers(n, key)

	middleware, err := m.middlewareFor(pipeline.CategoryNotification, n)
	if err != nil {
		return nil, err
	}

	// The terminal is the whole fan-out: middleware pre-logic runs strictly
	// before any consumer, post-logic strictly after the slowest one.
	terminal := pipeline.HandlerFunc(func(ctx context.Context, msg contracts.Message) (any, error) {
		return m.fanOut(ctx, msg.(contracts.Notification), consumers, options.timeout), nil
	})

	start := time.Now()
	result, err := pipeline.Compose(middleware, terminal).Handle(ctx, n)
	duration := time.Since(start)

	if err != nil {
		m.record(observe.Event{
			Kind:        observe.EventNotificationPublished,
			MessageType: name,
			MessageID:   n.GetID(),
			Duration:    duration,
			Err:         err,
		})
		return nil, fmt.Errorf("notification pipeline failed for %s: %w", name, err)
	}

	fanned, ok := pipeline.FanOutFrom(result)
	if !ok {
		// A middleware short-circuited before the fan-out ran.
		fanned = &pipeline.FanOutResult{}
	}

	for _, failure := range fanned.Failures() {
		m.logger.Error("notification consumer failed",
			"messageType", name,
			"messageId", n.GetID(),
			"consumer", failure.Consumer,
			"error", failure.Err,
		)
		m.record(observe.Event{
			Kind:        observe.EventConsumerFailed,
			MessageType: name,
			MessageID:   n.GetID(),
			Consumer:    failure.Consumer,
			Duration:    failure.Duration,
			Err:         failure.Err,
		})
	}

	m.record(observe.Event{
		Kind:        observe.EventNotificationPublished,
		MessageType: name,
		MessageID:   n.GetID(),
		Duration:    duration,
		Succeeded:   fanned.Succeeded(),
		Failed:      fanned.Failed(),
	})

	m.logger.Debug("notification published",
		"messageType", name,
		"messageId", n.GetID(),
		"consumers", len(fanned.Results),
		"failed", fanned.Failed(),
		"duration", duration,
	)

	return fanned, nil
}

// resolveConsumers collects automatic handlers for the declared type plus a
// snapshot of matching subscribers.
func (m *Mediator) resolveConsumers(n contracts.Notification, key string) []consumer {
	automatic := m.registry.ResolveNotificationHandlers(key)
	subscribed := m.subscriptions.Snapshot(n)

	consumers := make([]consumer, 0, len(automatic)+len(subscribed))
	for _, h := range automatic {
		consumers = append(consumers, consumer{name: consumerName(h), handler: h})
	}
	for _, sub := range subscribed {
		consumers = append(consumers, consumer{name: consumerName(sub.handler), handler: sub.handler})
	}
	return consumers
}

// fanOut runs every consumer concurrently and aggregates their outcomes.
// It never fails itself; consumer errors and panics become results.
func (m *Mediator) fanOut(ctx context.Context, n contracts.Notification, consumers []consumer, timeout time.Duration) *pipeline.FanOutResult {
	if len(consumers) == 0 {
		return &pipeline.FanOutResult{}
	}

	fanCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		fanCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type indexed struct {
		index  int
		result pipeline.ConsumerResult
	}

	outcomes := make(chan indexed, len(consumers))
	for i, c := range consumers {
		go func(i int, c consumer) {
			start := time.Now()
			err := m.invokeConsumer(fanCtx, c, n)
			outcomes <- indexed{
				index: i,
				result: pipeline.ConsumerResult{
					Consumer: c.name,
					Duration: time.Since(start),
					Err:      err,
				},
			}
		}(i, c)
	}

	results := make([]pipeline.ConsumerResult, len(consumers))
	finished := make([]bool, len(consumers))
	pending := len(consumers)

	for pending > 0 {
		select {
		case o := <-outcomes:
			results[o.index] = o.result
			finished[o.index] = true
			pending--
		case <-fanCtx.Done():
			// Timed out or cancelled: collect what already finished, then
			// report stragglers with the context error. They keep running
			// and observe cancellation on their own.
			for {
				select {
				case o := <-outcomes:
					results[o.index] = o.result
					finished[o.index] = true
					continue
				default:
				}
				break
			}
			for i := range results {
				if !finished[i] {
					results[i] = pipeline.ConsumerResult{
						Consumer: consumers[i].name,
						Err:      fanCtx.Err(),
					}
				}
			}
			return &pipeline.FanOutResult{Results: results}
		}
	}

	return &pipeline.FanOutResult{Results: results}
}

// invokeConsumer runs one consumer inside its own panic boundary.
func (m *Mediator) invokeConsumer(ctx context.Context, c consumer, n contracts.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("consumer %s panicked: %v", c.name, r)
		}
	}()
	return c.handler.Handle(ctx, n)
}
