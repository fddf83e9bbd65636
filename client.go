// Copyright 2024 Mediate Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mediate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glimte/mediate-go/contracts"
	"github.com/glimte/mediate-go/mediator"
	"github.com/glimte/mediate-go/observe"
	"github.com/glimte/mediate-go/pipeline"
)

// Client provides the main entry point for mediate-go. It bundles a handler
// registry with a mediator so typical applications need a single value:
// register handlers and middleware, then dispatch.
type Client struct {
	registry *mediator.HandlerRegistry
	mediator *mediator.Mediator
}

type clientConfig struct {
	logger         *slog.Logger
	sink           observe.Sink
	mode           pipeline.ValidationMode
	publishTimeout time.Duration
	middleware     map[pipeline.Category][]pipeline.Middleware
}

// ClientOption configures the client
type ClientOption func(*clientConfig)

// WithLogger sets the logger used by the registry and mediator
func WithLogger(logger *slog.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// WithDefaultLogger uses slog.Default()
func WithDefaultLogger() ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = slog.Default()
	}
}

// WithSink sets the sink dispatch events are reported to
func WithSink(sink observe.Sink) ClientOption {
	return func(cfg *clientConfig) {
		cfg.sink = sink
	}
}

// WithLenientValidation accepts malformed middleware constraints at startup,
// logging a warning and treating the middleware as never applicable. The
// default is strict validation, which fails NewClient instead.
func WithLenientValidation() ClientOption {
	return func(cfg *clientConfig) {
		cfg.mode = pipeline.LenientValidation
	}
}

// WithPublishTimeout bounds every Publish fan-out unless overridden per call
func WithPublishTimeout(timeout time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.publishTimeout = timeout
	}
}

// WithMiddleware appends middleware to a pipeline category before the
// mediator is built, so strict validation covers it.
func WithMiddleware(category pipeline.Category, middleware ...pipeline.Middleware) ClientOption {
	return func(cfg *clientConfig) {
		cfg.middleware[category] = append(cfg.middleware[category], middleware...)
	}
}

// NewClient creates a client with an empty registry. Register handlers via
// the registration methods, then dispatch with Send, Publish and SendStream.
//
// Middleware supplied through WithMiddleware is validated during construction
// in strict mode; middleware added later through Use is validated lazily at
// first dispatch.
func NewClient(options ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		logger:     slog.Default(),
		sink:       observe.NopSink{},
		mode:       pipeline.StrictValidation,
		middleware: make(map[pipeline.Category][]pipeline.Middleware),
	}
	for _, opt := range options {
		opt(cfg)
	}

	registry := mediator.NewHandlerRegistry(
		mediator.WithRegistryLogger(cfg.logger),
	)
	for category, middleware := range cfg.middleware {
		registry.Use(category, middleware...)
	}

	med, err := mediator.New(registry,
		mediator.WithLogger(cfg.logger),
		mediator.WithSink(cfg.sink),
		mediator.WithValidationMode(cfg.mode),
		mediator.WithPublishTimeout(cfg.publishTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mediator: %w", err)
	}

	return &Client{
		registry: registry,
		mediator: med,
	}, nil
}

// Registry returns the underlying handler registry for registration calls
// not covered by the client surface.
func (c *Client) Registry() *mediator.HandlerRegistry {
	return c.registry
}

// Mediator returns the underlying mediator for introspection calls.
func (c *Client) Mediator() *mediator.Mediator {
	return c.mediator
}

// HandleRequest registers a request handler for the prototype's type
func (c *Client) HandleRequest(prototype contracts.Request, handler mediator.RequestHandler) error {
	return c.registry.RegisterRequestHandler(prototype, handler)
}

// HandleStream registers a stream handler for the prototype's type
func (c *Client) HandleStream(prototype contracts.Request, handler mediator.StreamHandler) error {
	return c.registry.RegisterStreamHandler(prototype, handler)
}

// HandleNotification registers an automatic notification handler for the
// prototype's type
func (c *Client) HandleNotification(prototype contracts.Notification, handler mediator.NotificationHandler) error {
	return c.registry.RegisterNotificationHandler(prototype, handler)
}

// Use appends middleware to a pipeline category
func (c *Client) Use(category pipeline.Category, middleware ...pipeline.Middleware) {
	c.registry.Use(category, middleware...)
}

// Send dispatches a request to its single handler
func (c *Client) Send(ctx context.Context, req contracts.Request) (any, error) {
	return c.mediator.Send(ctx, req)
}

// Publish fans a notification out to every matching consumer
func (c *Client) Publish(ctx context.Context, n contracts.Notification, opts ...mediator.PublishOption) (*pipeline.FanOutResult, error) {
	return c.mediator.Publish(ctx, n, opts...)
}

// SendStream dispatches a request to its single stream handler
func (c *Client) SendStream(ctx context.Context, req contracts.Request) (pipeline.Stream, error) {
	return c.mediator.SendStream(ctx, req)
}

// Subscribe adds a runtime consumer for the prototype's concrete type
func (c *Client) Subscribe(prototype contracts.Notification, handler mediator.NotificationHandler) (*mediator.Subscription, error) {
	return c.mediator.Subscriptions().Subscribe(prototype, handler)
}

// SubscribeInterface adds a runtime consumer for every notification whose
// concrete type implements the given interface. Pass a nil interface
// pointer, e.g. (*AuditEvent)(nil).
func (c *Client) SubscribeInterface(ifacePtr any, handler mediator.NotificationHandler) (*mediator.Subscription, error) {
	return c.mediator.Subscriptions().SubscribeInterface(ifacePtr, handler)
}

// Unsubscribe removes a runtime consumer
func (c *Client) Unsubscribe(sub *mediator.Subscription) error {
	return c.mediator.Subscriptions().Unsubscribe(sub)
}
