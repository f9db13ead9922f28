package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types published on the order topic
const (
	EventTypeOrderCreated       = "order.created"
	EventTypeOrderStatusChanged = "order.status_changed"
)

// EventItem is an order line carried in an event
type EventItem struct {
	ProductID   uint            `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Event is the message body published for order changes
type Event struct {
	EventID        string          `json:"eventId"`
	EventType      string          `json:"eventType"`
	Timestamp      time.Time       `json:"timestamp"`
	OrderID        uint            `json:"orderId"`
	OrderNumber    string          `json:"orderNumber"`
	UserID         uint            `json:"userId"`
	Status         Status          `json:"status"`
	PreviousStatus Status          `json:"previousStatus,omitempty"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Items          []EventItem     `json:"items,omitempty"`
}

// EventPublisher delivers order events once the change is committed
type EventPublisher interface {
	OrderCreated(ctx context.Context, o *Order) error
	OrderStatusChanged(ctx context.Context, o *Order, from Status) error
}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) OrderCreated(context.Context, *Order) error               { return nil }
func (NoopPublisher) OrderStatusChanged(context.Context, *Order, Status) error { return nil }

// NewCreatedEvent builds the order.created event
func NewCreatedEvent(o *Order) *Event {
	e := newEvent(EventTypeOrderCreated, o)
	e.Items = make([]EventItem, 0, len(o.Items))
	for _, item := range o.Items {
		e.Items = append(e.Items, EventItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return e
}

// NewStatusChangedEvent builds the order.status_changed event
func NewStatusChangedEvent(o *Order, from Status) *Event {
	e := newEvent(EventTypeOrderStatusChanged, o)
	e.PreviousStatus = from
	return e
}

func newEvent(eventType string, o *Order) *Event {
	return &Event{
		EventID:     uuid.New().String(),
		EventType:   eventType,
		Timestamp:   time.Now().UTC(),
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
	}
}
