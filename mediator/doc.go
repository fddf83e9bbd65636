// Package mediator provides the in-process dispatch runtime: a single entry
// point routing requests to exactly one handler, notifications to
// zero-to-many concurrent consumers, and streaming requests to a
// lazily-produced sequence, each through an ordered middleware pipeline.
//
//	registry := mediator.NewHandlerRegistry()
//	registry.RegisterRequestHandler(&GetOrder{}, handler)
//	registry.Use(pipeline.CategoryRequest, pipeline.NewLoggingMiddleware(nil))
//
//	m, err := mediator.New(registry)
//	order, err := m.Send(ctx, &GetOrder{ID: "o-1"})
//
// Dispatch semantics:
//   - Send resolves exactly one handler; zero yields *NoHandlerError, more
//     than one *AmbiguousHandlerError. Handler and middleware errors
//     propagate to the caller unmodified.
//   - Publish fans out to every automatic handler and live subscriber
//     concurrently. Consumer failures are isolated and aggregated into the
//     returned FanOutResult; only pipeline construction or middleware
//     failures make Publish itself return an error.
//   - SendStream returns a pull-based stream; cancellation cooperatively
//     ends the stream without error.
package mediator
