package kafka

import (
	"context"
	"encoding/json"

	"billing-service/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher fans out committed order transitions to the event bus.
// Publishing is best-effort: callers log failures and move on, they never
// roll back the committed write.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event models.OrderEvent) error
	Close() error
}

// OrderEventProducer writes order events to a single Kafka topic, keyed by
// order id so a consumer sees one order's transitions in order.
type OrderEventProducer struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

func NewOrderEventProducer(brokers []string, topic string, logger *zap.Logger) *OrderEventProducer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	logger.Info("kafka producer initialized",
		zap.String("topic", topic),
		zap.Strings("brokers", brokers))
	return &OrderEventProducer{writer: w, topic: topic, logger: logger}
}

func (p *OrderEventProducer) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish order event",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
		return err
	}

	p.logger.Debug("order event published",
		zap.String("type", event.Type),
		zap.String("order_id", event.OrderID))
	return nil
}

func (p *OrderEventProducer) Close() error {
	p.logger.Info("closing kafka producer", zap.String("topic", p.topic))
	return p.writer.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderEvent(context.Context, models.OrderEvent) error { return nil }
func (NoopPublisher) Close() error                                               { return nil }
