package mediator

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/glimte/mediate-go/contracts"
	"github.com/glimte/mediate-go/observe"
	"github.com/glimte/mediate-go/pipeline"
)

// Mediator is the single entry point for in-process dispatch.
type Mediator struct {
	registry       Registry
	subscriptions  *SubscriptionRegistry
	matcher        *pipeline.Matcher
	logger         *slog.Logger
	sink           observe.Sink
	mode           pipeline.ValidationMode
	publishTimeout time.Duration

	// applicable middleware per (category, runtime type)
	applicable sync.Map
}

type applicableKey struct {
	category pipeline.Category
	msgType  reflect.Type
}

// Option configures the Mediator
type Option func(*Mediator)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mediator) {
		m.logger = logger
	}
}

// WithSink sets the sink timing and outcome events are reported to
func WithSink(sink observe.Sink) Option {
	return func(m *Mediator) {
		m.sink = sink
	}
}

// WithValidationMode selects strict or lenient constraint validation.
// Strict mode (the default) validates every registered middleware
// constraint during New and fails construction on a malformed one.
func WithValidationMode(mode pipeline.ValidationMode) Option {
	return func(m *Mediator) {
		m.mode = mode
	}
}

// WithPublishTimeout bounds every Publish fan-out unless overridden per
// call. Zero means wait for the slowest consumer.
func WithPublishTimeout(timeout time.Duration) Option {
	return func(m *Mediator) {
		m.publishTimeout = timeout
	}
}

// WithSubscriptionRegistry shares an externally-owned subscription registry
func WithSubscriptionRegistry(subs *SubscriptionRegistry) Option {
	return func(m *Mediator) {
		m.subscriptions = subs
	}
}

// New creates a mediator over the given registry. In strict validation mode
// every registered middleware constraint is checked here so configuration
// errors surface at startup rather than at the first dispatch.
func New(registry Registry, opts ...Option) (*Mediator, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}

	m := &Mediator{
		registry: registry,
		logger:   slog.Default(),
		sink:     observe.NopSink{},
		mode:     pipeline.StrictValidation,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.subscriptions == nil {
		m.subscriptions = NewSubscriptionRegistry()
	}

	m.matcher = pipeline.NewMatcher(
		pipeline.WithMatcherMode(m.mode),
		pipeline.WithMatcherLogger(m.logger),
		pipeline.WithMatcherSink(m.sink),
	)

	if m.mode == pipeline.StrictValidation {
		for _, category := range []pipeline.Category{
			pipeline.CategoryRequest,
			pipeline.CategoryNotification,
			pipeline.CategoryStream,
		} {
			if err := m.matcher.ValidateConstraints(registry.ResolveMiddleware(category)); err != nil {
				return nil, fmt.Errorf("invalid %s middleware configuration: %w", category, err)
			}
		}
	}

	return m, nil
}

// Subscriptions returns the runtime subscription registry.
func (m *Mediator) Subscriptions() *SubscriptionRegistry {
	return m.subscriptions
}

// Send dispatches a request through the request pipeline to its single
// handler and returns the handler's response. Middleware may short-circuit,
// in which case its return value becomes the response. Errors from the
// handler or middleware propagate unmodified.
func (m *Mediator) Send(ctx context.Context, req contracts.Request) (any, error) {
	key, name, err := messageIdentity(req)
	if err != nil {
		return nil, err
	}

	handlers := m.registry.ResolveRequestHandlers(key)
	switch len(handlers) {
	case 1:
	case 0:
		return nil, &NoHandlerError{MessageType: name}
	default:
		return nil, &AmbiguousHandlerError{MessageType: name, Count: len(handlers)}
	}

	middleware, err := m.middlewareFor(pipeline.CategoryRequest, req)
	if err != nil {
		return nil, err
	}

	handler := handlers[0]
	terminal := pipeline.HandlerFunc(func(ctx context.Context, msg contracts.Message) (any, error) {
		return handler.Handle(ctx, msg.(contracts.Request))
	})

	start := time.Now()
	result, err := pipeline.Compose(middleware, terminal).Handle(ctx, req)
	duration := time.Since(start)

	m.record(observe.Event{
		Kind:        observe.EventRequestCompleted,
		MessageType: name,
		MessageID:   req.GetID(),
		Duration:    duration,
		Err:         err,
	})

	if err != nil {
		m.logger.Debug("request failed",
			"messageType", name,
			"messageId", req.GetID(),
			"duration", duration,
			"error", err,
		)
		return nil, err
	}

	m.logger.Debug("request completed",
		"messageType", name,
		"messageId", req.GetID(),
		"duration", duration,
	)
	return result, nil
}

// middlewareFor returns the sorted middleware applying to the message's
// runtime type, served from a per-type cache after the first dispatch.
func (m *Mediator) middlewareFor(category pipeline.Category, msg contracts.Message) ([]pipeline.Middleware, error) {
	key := applicableKey{category: category, msgType: reflect.TypeOf(msg)}
	if cached, ok := m.applicable.Load(key); ok {
		return cached.([]pipeline.Middleware), nil
	}

	sorted := pipeline.Sort(m.registry.ResolveMiddleware(category))
	filtered, err := m.matcher.Filter(key.msgType, sorted)
	if err != nil {
		return nil, err
	}

	m.applicable.Store(key, filtered)
	return filtered, nil
}

// record reports to the sink, shielding dispatch from sink panics.
func (m *Mediator) record(event observe.Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("sink panicked", "kind", string(event.Kind), "panic", r)
		}
	}()
	m.sink.Record(event)
}
