package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/latchjack/burger/pkg/burger"
	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const RoutingKeyOrderPlaced = "order.placed"

// OrderPlaced is published once an order has been stored.
type OrderPlaced struct {
	OrderID        string             `json:"order_id"`
	UserID         string             `json:"user_id"`
	Ingredients    burger.Ingredients `json:"ingredients"`
	Price          decimal.Decimal    `json:"price"`
	DeliveryMethod string             `json:"delivery_method"`
	PlacedAt       time.Time          `json:"placed_at"`
}

type Transport interface {
	Publish(ctx context.Context, routingKey string, msg amqp091.Publishing) error
}

type Publisher struct {
	transport Transport
	logger    *zap.Logger
}

func NewPublisher(transport Transport, logger *zap.Logger) *Publisher {
	return &Publisher{
		transport: transport,
		logger:    logger,
	}
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, event OrderPlaced) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.transport.Publish(ctx, RoutingKeyOrderPlaced, amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		MessageId:    event.OrderID,
		Timestamp:    event.PlacedAt,
	})
	if err != nil {
		p.logger.Error("Failed to publish order event",
			zap.String("order_id", event.OrderID),
			zap.String("routing_key", RoutingKeyOrderPlaced),
			zap.Error(err))
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("Published order event",
		zap.String("order_id", event.OrderID),
		zap.Int("message_size", len(body)))
	return nil
}

// NopPublisher drops events; used when RabbitMQ is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, OrderPlaced) error {
	return nil
}
