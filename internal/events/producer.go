package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/yourorg/storefront/internal/domain"
)

// OrderEvent is published on every order lifecycle change; keyed by order ID
// so one order's events stay in partition order.
type OrderEvent struct {
	EventType  string               `json:"eventType"` // order.created, order.status_changed, order.cancelled
	OrderID    string               `json:"orderId"`
	CustomerID string               `json:"customerId"`
	RetailerID string               `json:"retailerId"`
	Status     domain.OrderStatus   `json:"status"`
	Payment    domain.PaymentStatus `json:"paymentStatus"`
	Total      float64              `json:"total"`
	OccurredAt time.Time            `json:"occurredAt"`
}

// Publisher is implemented by the Kafka producer; the order service accepts
// the interface so tests can record events in memory.
type Publisher interface {
	PublishOrderEvent(event OrderEvent) error
	Close() error
}

// Producer publishes order events to Kafka via a synchronous sarama producer.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewProducer connects a synchronous producer to the given brokers.
func NewProducer(cfg *KafkaConfig, logger *slog.Logger) (*Producer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	saramaCfg, err := NewSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return &Producer{producer: producer, topic: cfg.Topic, logger: logger}, nil
}

// PublishOrderEvent serializes and sends one event.
func (p *Producer) PublishOrderEvent(event OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.OrderID),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send order event: %w", err)
	}

	p.logger.Debug("order event published",
		slog.String("event_type", event.EventType),
		slog.String("order_id", event.OrderID),
		slog.Int64("partition", int64(partition)),
		slog.Int64("offset", offset),
	)
	return nil
}

// Close shuts the underlying producer down.
func (p *Producer) Close() error {
	return p.producer.Close()
}
