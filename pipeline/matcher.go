package pipeline

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/glimte/mediate-go/observe"
)

// ValidationMode controls how unresolvable middleware constraints are treated.
type ValidationMode int

const (
	// StrictValidation surfaces malformed constraints as errors, preferably
	// at startup via ValidateConstraints.
	StrictValidation ValidationMode = iota
	// LenientValidation records a warning and treats the middleware as
	// never-applicable.
	LenientValidation
)

// ConstraintError reports a middleware constraint that cannot be evaluated.
type ConstraintError struct {
	Middleware string
	Constraint reflect.Type
	Reason     string
}

// Error implements error
func (e *ConstraintError) Error() string {
	return fmt.Sprintf("middleware %s has an unusable constraint %v: %s", e.Middleware, e.Constraint, e.Reason)
}

// Matcher decides, per concrete message type, which middleware apply.
// Decisions are cached per (message type, middleware name) pair and never
// evicted; the middleware set is assumed stable after startup.
type Matcher struct {
	cache  sync.Map // matchKey -> bool
	mode   ValidationMode
	logger *slog.Logger
	sink   observe.Sink
}

type matchKey struct {
	msgType    reflect.Type
	middleware string
}

// MatcherOption configures the Matcher
type MatcherOption func(*Matcher)

// WithMatcherMode sets the validation mode
func WithMatcherMode(mode ValidationMode) MatcherOption {
	return func(m *Matcher) {
		m.mode = mode
	}
}

// WithMatcherLogger sets the logger
func WithMatcherLogger(logger *slog.Logger) MatcherOption {
	return func(m *Matcher) {
		m.logger = logger
	}
}

// WithMatcherSink sets the sink lenient-mode warnings are recorded to
func WithMatcherSink(sink observe.Sink) MatcherOption {
	return func(m *Matcher) {
		m.sink = sink
	}
}

// NewMatcher creates a matcher in strict mode with default logging.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{
		mode:   StrictValidation,
		logger: slog.Default(),
		sink:   observe.NopSink{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Applies reports whether mw applies to messages of the given runtime type.
// Middleware without constraints applies to everything; declared bounds are
// evaluated conjunctively. In lenient mode an unusable constraint makes the
// middleware never-applicable and records a pipeline warning.
func (m *Matcher) Applies(msgType reflect.Type, mw Middleware) (bool, error) {
	constraints := ConstraintsOf(mw)
	if len(constraints) == 0 {
		return true, nil
	}

	key := matchKey{msgType: msgType, middleware: mw.Name()}
	if cached, ok := m.cache.Load(key); ok {
		return cached.(bool), nil
	}

	applies := true
	for _, constraint := range constraints {
		satisfied, err := satisfies(msgType, constraint)
		if err != nil {
			cerr := &ConstraintError{Middleware: mw.Name(), Constraint: constraint, Reason: err.Error()}
			if m.mode == StrictValidation {
				return false, cerr
			}
			m.warn(msgType, cerr)
			applies = false
			break
		}
		if !satisfied {
			applies = false
			break
		}
	}

	m.cache.Store(key, applies)
	return applies, nil
}

// Filter returns the subset of middleware applying to the given message
// type, preserving input order.
func (m *Matcher) Filter(msgType reflect.Type, middleware []Middleware) ([]Middleware, error) {
	applicable := make([]Middleware, 0, len(middleware))
	for _, mw := range middleware {
		applies, err := m.Applies(msgType, mw)
		if err != nil {
			return nil, err
		}
		if applies {
			applicable = append(applicable, mw)
		}
	}
	return applicable, nil
}

// ValidateConstraints checks every declared constraint without matching it
// against a message type. Use at startup in strict mode so malformed
// registrations fail construction instead of the first dispatch.
func (m *Matcher) ValidateConstraints(middleware []Middleware) error {
	for _, mw := range middleware {
		for _, constraint := range ConstraintsOf(mw) {
			if err := usable(constraint); err != nil {
				return &ConstraintError{Middleware: mw.Name(), Constraint: constraint, Reason: err.Error()}
			}
		}
	}
	return nil
}

func (m *Matcher) warn(msgType reflect.Type, cerr *ConstraintError) {
	m.logger.Warn("skipping middleware with unusable constraint",
		"middleware", cerr.Middleware,
		"messageType", msgType.String(),
		"reason", cerr.Reason,
	)
	m.record(observe.Event{
		Kind:        observe.EventPipelineWarning,
		MessageType: msgType.String(),
		Detail:      cerr.Error(),
	})
}

// record reports to the sink, shielding constraint matching from sink panics.
func (m *Matcher) record(event observe.Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("sink panicked", "kind", string(event.Kind), "panic", r)
		}
	}()
	m.sink.Record(event)
}

func usable(constraint reflect.Type) error {
	if constraint == nil {
		return fmt.Errorf("constraint type is nil")
	}
	kind := constraint.Kind()
	if kind == reflect.Ptr {
		kind = constraint.Elem().Kind()
	}
	if kind != reflect.Interface && kind != reflect.Struct {
		return fmt.Errorf("constraint must be an interface or struct type, got %s", constraint.Kind())
	}
	return nil
}

// satisfies reports whether a concrete message type meets one bound.
func satisfies(msgType, constraint reflect.Type) (bool, error) {
	if err := usable(constraint); err != nil {
		return false, err
	}

	if constraint.Kind() == reflect.Interface {
		if msgType.Implements(constraint) {
			return true, nil
		}
		// Methods with pointer receivers live in the pointer method set.
		if msgType.Kind() != reflect.Ptr && reflect.PointerTo(msgType).Implements(constraint) {
			return true, nil
		}
		return false, nil
	}

	// Exact-type bound: match the type itself or a pointer to it.
	target := constraint
	if target.Kind() == reflect.Ptr {
		target = target.Elem()
	}
	actual := msgType
	if actual.Kind() == reflect.Ptr {
		actual = actual.Elem()
	}
	return actual == target, nil
}
