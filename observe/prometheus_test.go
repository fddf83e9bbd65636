package observe

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusSink(t *testing.T) {
	t.Run("registers collectors with the given registry", func(t *testing.T) {
		reg := prometheus.NewRegistry()

		_, err := NewPrometheusSink(reg)

		assert.NoError(t, err)
	})

	t.Run("registering twice on the same registry fails", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		_, err := NewPrometheusSink(reg)
		require.NoError(t, err)

		_, err = NewPrometheusSink(reg)

		assert.Error(t, err)
	})

	t.Run("counts events with outcome labels", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		s, err := NewPrometheusSink(reg)
		require.NoError(t, err)

		s.Record(Event{Kind: EventRequestCompleted, MessageType: "GetOrder"})
		s.Record(Event{Kind: EventRequestCompleted, MessageType: "GetOrder", Err: errors.New("boom")})

		success := testutil.ToFloat64(s.events.WithLabelValues("request.completed", "GetOrder", "success"))
		failure := testutil.ToFloat64(s.events.WithLabelValues("request.completed", "GetOrder", "failure"))
		assert.Equal(t, float64(1), success)
		assert.Equal(t, float64(1), failure)
	})

	t.Run("counts consumer failures per message type", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		s, err := NewPrometheusSink(reg)
		require.NoError(t, err)

		s.Record(Event{Kind: EventConsumerFailed, MessageType: "OrderCreated", Err: errors.New("bounce")})
		s.Record(Event{Kind: EventConsumerFailed, MessageType: "OrderCreated", Err: errors.New("bounce")})

		failures := testutil.ToFloat64(s.failures.WithLabelValues("OrderCreated"))
		assert.Equal(t, float64(2), failures)
	})

	t.Run("observes durations when present", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		s, err := NewPrometheusSink(reg)
		require.NoError(t, err)

		s.Record(Event{Kind: EventRequestCompleted, MessageType: "GetOrder", Duration: 5 * time.Millisecond})

		count := testutil.CollectAndCount(s.durations)
		assert.Equal(t, 1, count)
	})
}
