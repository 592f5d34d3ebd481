package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/lindembergz/123Vendas-sub000/internal/domain"
)

// Notifier is the downstream fan-out for dispatched order events. Delivery
// is at-least-once; consumers must be idempotent.
type Notifier interface {
	Publish(ctx context.Context, event domain.Event) error
}

type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(topic string, brokers ...string) *KafkaNotifier {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaNotifier{writer: w}
}

func (n *KafkaNotifier) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.EventType(), err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Aggregate()), // order id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType())},
		},
	}

	return n.writer.WriteMessages(ctx, msg)
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
