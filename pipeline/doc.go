// Package pipeline provides the middleware composition engine underneath the
// mediator: ordered onion-style chains, per-message-type constraint matching
// with a concurrent decision cache, fan-out result aggregation, and a
// pull-based Stream abstraction for lazily-produced results.
//
// A single chain signature serves all three dispatch shapes. The terminal
// handler of a request chain returns the response value, the terminal of a
// notification chain returns a *FanOutResult describing the whole fan-out,
// and the terminal of a stream chain returns a Stream. Middleware wraps the
// terminal either way:
//
//	chain := pipeline.Compose(middleware, terminal)
//	result, err := chain.Handle(ctx, msg)
//
// Middleware declares optional behavior through capability interfaces
// checked by type assertion:
//   - Ordered: explicit position (lower runs first on the way in)
//   - Constrained: only applies to message types satisfying all bounds
//   - Conditional: runtime predicate evaluated once per dispatch
//
// Built-in middleware:
//   - LoggingMiddleware: logs processing with timing information
//   - RecoveryMiddleware: converts panics into errors
//   - TimeoutMiddleware: bounds downstream execution time
//   - ValidationMiddleware: struct-tag validation before the handler runs
//   - RateLimitMiddleware: per-message-type token bucket limiting
//   - RetryMiddleware: re-runs the downstream chain per a retry policy
//   - CircuitBreakerMiddleware: stops calling a failing downstream chain
package pipeline
