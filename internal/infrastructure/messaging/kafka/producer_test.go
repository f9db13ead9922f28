package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/food-ordering-backend/internal/domain/order"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testOrder() *order.Order {
	return &order.Order{
		ID:          9,
		OrderNumber: "ORD-20240301-AB12CD34",
		UserID:      3,
		Status:      order.StatusPending,
		TotalAmount: decimal.NewFromInt(1850),
		Items: []order.OrderItem{
			{ProductID: 1, ProductName: "Margherita", Quantity: 2, UnitPrice: decimal.NewFromInt(800)},
		},
	}
}

func TestOrderCreatedPublishesKeyedMessage(t *testing.T) {
	writer := &fakeWriter{}
	producer := &Producer{writer: writer, topic: "orders"}

	require.NoError(t, producer.OrderCreated(context.Background(), testOrder()))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "ORD-20240301-AB12CD34", string(msg.Key))
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, order.EventTypeOrderCreated, string(msg.Headers[0].Value))

	var event order.Event
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, order.EventTypeOrderCreated, event.EventType)
	assert.Equal(t, uint(9), event.OrderID)
	assert.True(t, event.TotalAmount.Equal(decimal.NewFromInt(1850)))
	require.Len(t, event.Items, 1)
	assert.Equal(t, "Margherita", event.Items[0].ProductName)
	assert.NotEmpty(t, event.EventID)
}

func TestOrderStatusChangedCarriesPreviousStatus(t *testing.T) {
	writer := &fakeWriter{}
	producer := &Producer{writer: writer, topic: "orders"}

	o := testOrder()
	o.Status = order.StatusConfirmed
	require.NoError(t, producer.OrderStatusChanged(context.Background(), o, order.StatusPending))

	var event order.Event
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &event))
	assert.Equal(t, order.EventTypeOrderStatusChanged, event.EventType)
	assert.Equal(t, order.StatusConfirmed, event.Status)
	assert.Equal(t, order.StatusPending, event.PreviousStatus)
	assert.Empty(t, event.Items)
}

func TestPublishWrapsWriterError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker down")}
	producer := &Producer{writer: writer, topic: "orders"}

	err := producer.OrderCreated(context.Background(), testOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestShutdownClosesWriter(t *testing.T) {
	writer := &fakeWriter{}
	producer := &Producer{writer: writer, topic: "orders"}

	producer.Shutdown()
	assert.True(t, writer.closed)
}
