package mediator

import (
	"context"
	"testing"

	"github.com/glimte/mediate-go/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type getOrderHandler struct{}

func (h *getOrderHandler) Handle(ctx context.Context, req *GetOrder) (string, error) {
	return "order-" + req.OrderID, nil
}

func TestTypedAdapters(t *testing.T) {
	t.Run("typed request handler dispatches without casts", func(t *testing.T) {
		registry := NewHandlerRegistry()
		require.NoError(t, registry.RegisterRequestHandler(&GetOrder{},
			RequestHandlerOf[*GetOrder, string](&getOrderHandler{})))

		m := newMediator(t, registry)

		result, err := m.Send(context.Background(), newGetOrder("42"))

		require.NoError(t, err)
		assert.Equal(t, "order-42", result)
	})

	t.Run("typed function adapters work for requests and notifications", func(t *testing.T) {
		registry := NewHandlerRegistry()
		require.NoError(t, registry.RegisterRequestHandler(&GetOrder{},
			TypedRequestFunc(func(ctx context.Context, req *GetOrder) (int, error) {
				return len(req.OrderID), nil
			})))

		var seen string
		require.NoError(t, registry.RegisterNotificationHandler(&OrderCreated{},
			TypedNotificationFunc(func(ctx context.Context, n *OrderCreated) error {
				seen = n.OrderID
				return nil
			})))

		m := newMediator(t, registry)

		result, err := m.Send(context.Background(), newGetOrder("1234"))
		require.NoError(t, err)
		assert.Equal(t, 4, result)

		fanned, err := m.Publish(context.Background(), newOrderCreated("42"))
		require.NoError(t, err)
		assert.Equal(t, 1, fanned.Succeeded())
		assert.Equal(t, "42", seen)
	})

	t.Run("a mismatched concrete type fails instead of panicking", func(t *testing.T) {
		handler := RequestHandlerOf[*GetOrder, string](&getOrderHandler{})

		_, err := handler.Handle(context.Background(), newListOrders(5))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "handler expects")
	})

	t.Run("typed notification handler rejects foreign notifications", func(t *testing.T) {
		handler := NotificationHandlerOf[*OrderCreated](typedNotificationFunc[*OrderCreated](
			func(ctx context.Context, n *OrderCreated) error { return nil }))

		shipped := &OrderShipped{BaseNotification: contracts.NewBaseNotification("OrderShipped")}
		err := handler.Handle(context.Background(), shipped)

		assert.Error(t, err)
	})
}
