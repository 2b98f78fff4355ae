package service

import (
	"context"
	"errors"
	"testing"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trader/dto"
	"stock-auto-trader/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderService_Place(t *testing.T) {
	ctx := context.Background()
	placement := OrderPlacement{
		Order: dto.OrderRequest{
			Ticker:   "AAPL",
			Exchange: "NASD",
			Side:     entity.OrderSideBuy,
			Quantity: 4,
			Price:    decimal.RequireFromString("187.25"),
		},
		Reasons:        []string{"positive sentiment + full technical confirmation"},
		CompositeScore: 47.5,
		Priority:       1,
	}

	t.Run("accepted order is logged and published", func(t *testing.T) {
		broker := &fakeBroker{}
		logs := &fakeOrderLogs{}
		pub := &fakePublisher{}
		svc := NewOrderService(logger.NewNop(), broker, logs, pub)

		outcome := svc.Place(ctx, placement)

		assert.Equal(t, string(entity.OrderStatusAccepted), outcome.Status)
		assert.Equal(t, "0001", outcome.OrderNumber)
		require.Len(t, logs.rows, 1)
		assert.Equal(t, "749", logs.rows[0].Amount.String())
		assert.Equal(t, "0001", logs.rows[0].BrokerOrderID)

		require.Len(t, pub.events, 1)
		event, ok := pub.events[0].(dto.OrderEvent)
		require.True(t, ok)
		assert.NotEmpty(t, event.EventID)
		assert.Equal(t, 1, event.Priority)
	})

	t.Run("transport failure becomes a failed outcome", func(t *testing.T) {
		broker := &fakeBroker{orderErr: errors.New("connection reset")}
		logs := &fakeOrderLogs{}
		svc := NewOrderService(logger.NewNop(), broker, logs, &fakePublisher{})

		outcome := svc.Place(ctx, placement)

		assert.Equal(t, string(entity.OrderStatusFailed), outcome.Status)
		assert.Equal(t, "connection reset", outcome.Error)
		require.Len(t, logs.rows, 1)
		assert.Equal(t, entity.OrderStatusFailed, logs.rows[0].Status)
	})

	t.Run("publish failure does not change the outcome", func(t *testing.T) {
		svc := NewOrderService(logger.NewNop(), &fakeBroker{}, &fakeOrderLogs{}, &fakePublisher{err: errors.New("kafka down")})

		outcome := svc.Place(ctx, placement)

		assert.Equal(t, string(entity.OrderStatusAccepted), outcome.Status)
	})
}
