package pipeline

import (
	"context"
	"log/slog"
	"reflect"
	"testing"

	"github.com/glimte/mediate-go/contracts"
	"github.com/glimte/mediate-go/observe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Marker interfaces for constraint tests
type Auditable interface {
	AuditLabel() string
}

type Sensitive interface {
	Redact() string
}

// AuditedEvent implements Auditable only.
type AuditedEvent struct {
	contracts.BaseNotification
}

func (e *AuditedEvent) AuditLabel() string { return "audited" }

// SecretEvent implements both markers.
type SecretEvent struct {
	contracts.BaseNotification
}

func (e *SecretEvent) AuditLabel() string { return "secret" }
func (e *SecretEvent) Redact() string     { return "***" }

// PlainEvent implements neither.
type PlainEvent struct {
	contracts.BaseNotification
}

// valueReceiverEvent has its marker method on the value receiver.
type valueReceiverEvent struct {
	contracts.BaseNotification
}

func (e valueReceiverEvent) AuditLabel() string { return "value" }

func passthrough(name string) Middleware {
	return NewMiddlewareFunc(name, func(ctx context.Context, msg contracts.Message, next Handler) (any, error) {
		return next.Handle(ctx, msg)
	})
}

func TestMatcherApplies(t *testing.T) {
	t.Run("middleware without constraints applies to everything", func(t *testing.T) {
		m := NewMatcher()

		applies, err := m.Applies(reflect.TypeOf(&PlainEvent{}), passthrough("unbounded"))

		require.NoError(t, err)
		assert.True(t, applies)
	})

	t.Run("interface constraint matches implementing type", func(t *testing.T) {
		m := NewMatcher()
		mw := WithConstraints(passthrough("audit"), InterfaceOf[Auditable]())

		applies, err := m.Applies(reflect.TypeOf(&AuditedEvent{}), mw)

		require.NoError(t, err)
		assert.True(t, applies)
	})

	t.Run("interface constraint rejects non-implementing type", func(t *testing.T) {
		m := NewMatcher()
		mw := WithConstraints(passthrough("audit"), InterfaceOf[Auditable]())

		applies, err := m.Applies(reflect.TypeOf(&PlainEvent{}), mw)

		require.NoError(t, err)
		assert.False(t, applies)
	})

	t.Run("interface constraint sees pointer receiver methods for value types", func(t *testing.T) {
		m := NewMatcher()
		mw := WithConstraints(passthrough("audit"), InterfaceOf[Auditable]())

		applies, err := m.Applies(reflect.TypeOf(valueReceiverEvent{}), mw)

		require.NoError(t, err)
		assert.True(t, applies)
	})

	t.Run("multiple constraints are conjunctive", func(t *testing.T) {
		m := NewMatcher()
		mw := WithConstraints(passthrough("strictAudit"),
			InterfaceOf[Auditable](),
			InterfaceOf[Sensitive](),
		)

		both, err := m.Applies(reflect.TypeOf(&SecretEvent{}), mw)
		require.NoError(t, err)
		assert.True(t, both)

		onlyOne, err := m.Applies(reflect.TypeOf(&AuditedEvent{}), mw)
		require.NoError(t, err)
		assert.False(t, onlyOne)
	})

	t.Run("two middleware bound to different markers run only for matching types", func(t *testing.T) {
		m := NewMatcher()
		audit := WithConstraints(passthrough("audit"), InterfaceOf[Auditable]())
		redact := WithConstraints(passthrough("redact"), InterfaceOf[Sensitive]())
		chain := []Middleware{audit, redact}

		forSecret, err := m.Filter(reflect.TypeOf(&SecretEvent{}), chain)
		require.NoError(t, err)
		assert.Len(t, forSecret, 2)

		forAudited, err := m.Filter(reflect.TypeOf(&AuditedEvent{}), chain)
		require.NoError(t, err)
		require.Len(t, forAudited, 1)
		assert.Equal(t, "audit", forAudited[0].Name())

		forPlain, err := m.Filter(reflect.TypeOf(&PlainEvent{}), chain)
		require.NoError(t, err)
		assert.Empty(t, forPlain)
	})

	t.Run("exact type constraint matches only that type", func(t *testing.T) {
		m := NewMatcher()
		mw := WithConstraints(passthrough("exact"), reflect.TypeOf(AuditedEvent{}))

		matching, err := m.Applies(reflect.TypeOf(&AuditedEvent{}), mw)
		require.NoError(t, err)
		assert.True(t, matching)

		other, err := m.Applies(reflect.TypeOf(&SecretEvent{}), mw)
		require.NoError(t, err)
		assert.False(t, other)
	})

	t.Run("repeated checks hit the decision cache", func(t *testing.T) {
		m := NewMatcher()
		mw := WithConstraints(passthrough("cached"), InterfaceOf[Auditable]())
		msgType := reflect.TypeOf(&AuditedEvent{})

		first, err := m.Applies(msgType, mw)
		require.NoError(t, err)

		key := matchKey{msgType: msgType, middleware: "cached"}
		_, cached := m.cache.Load(key)
		assert.True(t, cached)

		second, err := m.Applies(msgType, mw)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("strict mode fails on an unusable constraint", func(t *testing.T) {
		m := NewMatcher(WithMatcherMode(StrictValidation))
		mw := WithConstraints(passthrough("broken"), reflect.TypeOf("not a struct"))

		_, err := m.Applies(reflect.TypeOf(&PlainEvent{}), mw)

		require.Error(t, err)
		var cerr *ConstraintError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "broken", cerr.Middleware)
	})

	t.Run("lenient mode skips the middleware and records a warning", func(t *testing.T) {
		collector := observe.NewCollector()
		m := NewMatcher(
			WithMatcherMode(LenientValidation),
			WithMatcherLogger(slog.Default()),
			WithMatcherSink(collector),
		)
		mw := WithConstraints(passthrough("broken"), reflect.TypeOf(42))

		applies, err := m.Applies(reflect.TypeOf(&PlainEvent{}), mw)

		require.NoError(t, err)
		assert.False(t, applies)
		assert.Equal(t, int64(1), collector.Count(observe.EventPipelineWarning, "*pipeline.PlainEvent"))
	})

	t.Run("a panicking sink never aborts lenient-mode matching", func(t *testing.T) {
		m := NewMatcher(
			WithMatcherMode(LenientValidation),
			WithMatcherSink(observe.SinkFunc(func(observe.Event) {
				panic("sink exploded")
			})),
		)
		mw := WithConstraints(passthrough("broken"), reflect.TypeOf(42))

		var applies bool
		var err error
		assert.NotPanics(t, func() {
			applies, err = m.Applies(reflect.TypeOf(&PlainEvent{}), mw)
		})
		require.NoError(t, err)
		assert.False(t, applies)
	})
}

func TestMatcherValidateConstraints(t *testing.T) {
	t.Run("accepts interface and struct constraints", func(t *testing.T) {
		m := NewMatcher()
		chain := []Middleware{
			WithConstraints(passthrough("iface"), InterfaceOf[Auditable]()),
			WithConstraints(passthrough("struct"), reflect.TypeOf(AuditedEvent{})),
			passthrough("unbounded"),
		}

		assert.NoError(t, m.ValidateConstraints(chain))
	})

	t.Run("rejects a non-interface non-struct constraint", func(t *testing.T) {
		m := NewMatcher()
		chain := []Middleware{
			WithConstraints(passthrough("broken"), reflect.TypeOf("nope")),
		}

		err := m.ValidateConstraints(chain)

		require.Error(t, err)
		var cerr *ConstraintError
		require.ErrorAs(t, err, &cerr)
		assert.Contains(t, cerr.Error(), "broken")
	})

	t.Run("rejects a nil constraint", func(t *testing.T) {
		m := NewMatcher()
		chain := []Middleware{
			WithConstraints(passthrough("nilBound"), nil),
		}

		assert.Error(t, m.ValidateConstraints(chain))
	})
}

func TestDecorators(t *testing.T) {
	t.Run("WithOrder overrides the declared order", func(t *testing.T) {
		mw := WithOrder(passthrough("mw"), 42)

		assert.Equal(t, 42, OrderOf(mw))
		assert.Equal(t, "mw", mw.Name())
	})

	t.Run("decorators stack on one wrapper", func(t *testing.T) {
		mw := WithOrder(
			WithConstraints(passthrough("mw"), InterfaceOf[Auditable]()),
			7,
		)

		assert.Equal(t, 7, OrderOf(mw))
		require.Len(t, ConstraintsOf(mw), 1)
		assert.Equal(t, InterfaceOf[Auditable](), ConstraintsOf(mw)[0])
	})

	t.Run("IsConditional reflects only a real predicate", func(t *testing.T) {
		plain := passthrough("plain")
		assert.False(t, IsConditional(plain))
		assert.False(t, IsConditional(WithOrder(plain, 1)))

		guarded := WithPredicate(plain, func(ctx context.Context, msg contracts.Message) (bool, error) {
			return true, nil
		})
		assert.True(t, IsConditional(guarded))
		assert.True(t, IsConditional(WithOrder(guarded, 1)))
	})

	t.Run("ConstraintsOf returns nil for unbounded middleware", func(t *testing.T) {
		assert.Nil(t, ConstraintsOf(passthrough("plain")))
	})
}
