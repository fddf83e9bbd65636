package mediator

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/glimte/mediate-go/contracts"
	"github.com/glimte/mediate-go/pipeline"
)

// Registry supplies handler and middleware instances to the mediator. The
// mediator never discovers types itself; collaborators implement Registry
// however they assemble instances (DI container, code-generated wiring, or
// the in-memory HandlerRegistry below).
//
// Registrations are assumed stable once dispatching starts; the mediator
// caches per-message-type middleware decisions on that assumption. The
// SubscriptionRegistry is the runtime-mutable side.
//
// Resolve calls receive the key produced by MessageKey for the dispatched
// message.
type Registry interface {
	// ResolveRequestHandlers returns the handlers for a request type.
	// The mediator requires exactly one.
	ResolveRequestHandlers(requestType string) []RequestHandler

	// ResolveStreamHandlers returns the stream handlers for a request type.
	// The mediator requires exactly one.
	ResolveStreamHandlers(requestType string) []StreamHandler

	// ResolveNotificationHandlers returns the automatic handlers for a
	// notification type. Zero is valid.
	ResolveNotificationHandlers(notificationType string) []NotificationHandler

	// ResolveMiddleware returns the middleware for a pipeline category in
	// registration order.
	ResolveMiddleware(category pipeline.Category) []pipeline.Middleware
}

// HandlerRegistry is the default in-memory Registry. Registration is by
// prototype message: the registration key is the message's package-qualified
// type name as produced by MessageKey.
type HandlerRegistry struct {
	mu            sync.RWMutex
	requests      map[string][]RequestHandler
	streams       map[string][]StreamHandler
	notifications map[string][]NotificationHandler
	middleware    map[pipeline.Category][]pipeline.Middleware
	logger        *slog.Logger
}

// RegistryOption configures the HandlerRegistry
type RegistryOption func(*HandlerRegistry)

// WithRegistryLogger sets the logger
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *HandlerRegistry) {
		r.logger = logger
	}
}

// NewHandlerRegistry creates an empty handler registry.
func NewHandlerRegistry(opts ...RegistryOption) *HandlerRegistry {
	r := &HandlerRegistry{
		requests:      make(map[string][]RequestHandler),
		streams:       make(map[string][]StreamHandler),
		notifications: make(map[string][]NotificationHandler),
		middleware:    make(map[pipeline.Category][]pipeline.Middleware),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterRequestHandler registers a handler for the prototype's type.
// Registering a second handler for the same type is allowed here but makes
// Send fail with an AmbiguousHandlerError at dispatch time.
func (r *HandlerRegistry) RegisterRequestHandler(prototype contracts.Request, handler RequestHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}
	key, err := MessageKey(prototype)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[key] = append(r.requests[key], handler)

	r.logger.Debug("registered request handler", "messageType", key)
	return nil
}

// RegisterRequestHandlerFunc registers a function as a request handler
func (r *HandlerRegistry) RegisterRequestHandlerFunc(prototype contracts.Request, handler RequestHandlerFunc) error {
	return r.RegisterRequestHandler(prototype, handler)
}

// RegisterStreamHandler registers a stream handler for the prototype's type.
func (r *HandlerRegistry) RegisterStreamHandler(prototype contracts.Request, handler StreamHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}
	key, err := MessageKey(prototype)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams[key] = append(r.streams[key], handler)

	r.logger.Debug("registered stream handler", "messageType", key)
	return nil
}

// RegisterStreamHandlerFunc registers a function as a stream handler
func (r *HandlerRegistry) RegisterStreamHandlerFunc(prototype contracts.Request, handler StreamHandlerFunc) error {
	return r.RegisterStreamHandler(prototype, handler)
}

// RegisterNotificationHandler registers an automatic handler for the
// prototype's type. Any number of handlers may share a type.
func (r *HandlerRegistry) RegisterNotificationHandler(prototype contracts.Notification, handler NotificationHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}
	key, err := MessageKey(prototype)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications[key] = append(r.notifications[key], handler)

	r.logger.Debug("registered notification handler", "messageType", key, "handler", consumerName(handler))
	return nil
}

// RegisterNotificationHandlerFunc registers a function as a notification handler
func (r *HandlerRegistry) RegisterNotificationHandlerFunc(prototype contracts.Notification, handler NotificationHandlerFunc) error {
	return r.RegisterNotificationHandler(prototype, handler)
}

// Use appends middleware to a pipeline category. Registration order is the
// tie-breaker for middleware sharing the same Order.
func (r *HandlerRegistry) Use(category pipeline.Category, middleware ...pipeline.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware[category] = append(r.middleware[category], middleware...)
}

// ResolveRequestHandlers implements Registry
func (r *HandlerRegistry) ResolveRequestHandlers(requestType string) []RequestHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handlers := make([]RequestHandler, len(r.requests[requestType]))
	copy(handlers, r.requests[requestType])
	return handlers
}

// ResolveStreamHandlers implements Registry
func (r *HandlerRegistry) ResolveStreamHandlers(requestType string) []StreamHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handlers := make([]StreamHandler, len(r.streams[requestType]))
	copy(handlers, r.streams[requestType])
	return handlers
}

// ResolveNotificationHandlers implements Registry
func (r *HandlerRegistry) ResolveNotificationHandlers(notificationType string) []NotificationHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handlers := make([]NotificationHandler, len(r.notifications[notificationType]))
	copy(handlers, r.notifications[notificationType])
	return handlers
}

// ResolveMiddleware implements Registry
func (r *HandlerRegistry) ResolveMiddleware(category pipeline.Category) []pipeline.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	middleware := make([]pipeline.Middleware, len(r.middleware[category]))
	copy(middleware, r.middleware[category])
	return middleware
}

// RegisteredTypes returns the MessageKey of every message type with at
// least one handler.
func (r *HandlerRegistry) RegisteredTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for name := range r.requests {
		seen[name] = struct{}{}
	}
	for name := range r.streams {
		seen[name] = struct{}{}
	}
	for name := range r.notifications {
		seen[name] = struct{}{}
	}

	types := make([]string, 0, len(seen))
	for name := range seen {
		types = append(types, name)
	}
	return types
}
