// Package kafka publishes order events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/your-org/food-ordering-backend/internal/config"
	"github.com/your-org/food-ordering-backend/internal/domain/order"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes order events keyed by order number, so events for one
// order stay on one partition in order.
type Producer struct {
	writer messageWriter
	topic  string
}

var _ order.EventPublisher = (*Producer)(nil)

// NewProducer creates a new Kafka producer
func NewProducer(cfg config.KafkaConfig) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.OrderTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.WriteTimeout,
	}

	return &Producer{writer: writer, topic: cfg.OrderTopic}
}

// OrderCreated publishes order.created
func (p *Producer) OrderCreated(ctx context.Context, o *order.Order) error {
	return p.publish(ctx, order.NewCreatedEvent(o))
}

// OrderStatusChanged publishes order.status_changed
func (p *Producer) OrderStatusChanged(ctx context.Context, o *order.Order, from order.Status) error {
	return p.publish(ctx, order.NewStatusChangedEvent(o, from))
}

func (p *Producer) publish(ctx context.Context, event *order.Event) error {
	msg, err := buildMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"topic":        p.topic,
		"event_type":   event.EventType,
		"event_id":     event.EventID,
		"order_number": event.OrderNumber,
	}).Debug("Published order event")
	return nil
}

func buildMessage(event *order.Event) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(event.OrderNumber),
		Value: value,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.EventType)},
			{Key: "event-id", Value: []byte(event.EventID)},
		},
	}, nil
}

// Close flushes pending messages and closes the writer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// closeTimeout bounds how long shutdown waits for buffered messages
const closeTimeout = 10 * time.Second

// Shutdown closes the producer, giving up after closeTimeout
func (p *Producer) Shutdown() {
	done := make(chan error, 1)
	go func() { done <- p.Close() }()

	select {
	case err := <-done:
		if err != nil {
			logrus.WithError(err).Warn("Kafka producer close failed")
		}
	case <-time.After(closeTimeout):
		logrus.Warn("Kafka producer close timed out")
	}
}
