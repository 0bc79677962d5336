package events

import (
	"context"
	"fmt"
	"time"

	"coffeespot/internal/repository/outbox"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Publisher delivers one order event to the outside world.
type Publisher interface {
	Publish(ctx context.Context, e outbox.Event) error
	Close() error
}

// KafkaPublisher writes events to a topic keyed by order id so one order's
// events stay on one partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e outbox.Event) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.OrderID),
		Value: e.Payload,
		Time:  e.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
			{Key: "event_id", Value: []byte(fmt.Sprint(e.ID))},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka write %s: %w", e.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher logs events instead of sending them. Used when no broker is configured.
type LogPublisher struct {
	Logger zerolog.Logger
}

func (p LogPublisher) Publish(_ context.Context, e outbox.Event) error {
	p.Logger.Info().
		Int64("event_id", e.ID).
		Str("order_id", e.OrderID).
		Str("event_type", e.Type).
		RawJSON("payload", e.Payload).
		Msg("order event")
	return nil
}

func (LogPublisher) Close() error { return nil }
