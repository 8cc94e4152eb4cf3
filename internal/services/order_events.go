// internal/services/order_events.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/models"
)

const EventTypeOrderPlaced = "order.placed"

type OrderPlacedItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// OrderPlacedEvent is emitted after a payment settles an order.
type OrderPlacedEvent struct {
	Type           string            `json:"type"`
	OrderID        uuid.UUID         `json:"order_id"`
	UserID         uuid.UUID         `json:"user_id"`
	TransactionRef string            `json:"transaction_ref"`
	AmountTotal    float64           `json:"amount_total"`
	AmountShipping float64           `json:"amount_shipping"`
	Address        string            `json:"address"`
	Latitude       *float64          `json:"latitude,omitempty"`
	Longitude      *float64          `json:"longitude,omitempty"`
	Items          []OrderPlacedItem `json:"items"`
	PlacedAt       time.Time         `json:"placed_at"`
}

func NewOrderPlacedEvent(order *models.Order) OrderPlacedEvent {
	event := OrderPlacedEvent{
		Type:           EventTypeOrderPlaced,
		OrderID:        order.ID,
		UserID:         order.UserID,
		AmountTotal:    order.AmountTotal,
		AmountShipping: order.AmountShipping,
		Address:        order.Address,
		Latitude:       order.Latitude,
		Longitude:      order.Longitude,
		Items:          make([]OrderPlacedItem, 0, len(order.Items)),
	}
	if order.TransactionRef != nil {
		event.TransactionRef = *order.TransactionRef
	}
	if order.SettledAt != nil {
		event.PlacedAt = *order.SettledAt
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, OrderPlacedItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return event
}

type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

// Publishing runs on the webhook request path, so a slow broker must not hold the response.
const (
	orderEventBatchTimeout   = 10 * time.Millisecond
	orderEventPublishTimeout = 3 * time.Second
)

// KafkaOrderPublisher writes order events keyed by order id, so one order's events stay ordered.
type KafkaOrderPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

func NewKafkaOrderPublisher(brokers []string, topic string) *KafkaOrderPublisher {
	return &KafkaOrderPublisher{
		writer: &kafkaGo.Writer{
			Addr:                   kafkaGo.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafkaGo.LeastBytes{},
			RequiredAcks:           kafkaGo.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           orderEventBatchTimeout,
			WriteTimeout:           orderEventPublishTimeout,
		},
		timeout: orderEventPublishTimeout,
	}
}

func (p *KafkaOrderPublisher) PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	return p.writer.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(event.OrderID.String()),
		Value: payload,
		Headers: []kafkaGo.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
}

func (p *KafkaOrderPublisher) Close() error {
	return p.writer.Close()
}

// LogOrderPublisher is used when no broker is configured.
type LogOrderPublisher struct{}

func (LogOrderPublisher) PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error {
	logrus.WithFields(logrus.Fields{
		"event":        event.Type,
		"order_id":     event.OrderID,
		"amount_total": event.AmountTotal,
		"items":        len(event.Items),
	}).Info("Order placed")
	return nil
}
