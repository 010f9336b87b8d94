// Package events publishes order lifecycle events to RabbitMQ.
// Publishing is best effort: callers log failures and never roll back
// committed state because of them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// OrderPaidEvent được publish sau khi Order + Payment Record commit thành công
type OrderPaidEvent struct {
	OrderID         string          `json:"order_id"`
	OrderNumber     string          `json:"order_number"`
	PaymentIntentID string          `json:"payment_intent_id"`
	UserID          string          `json:"user_id,omitempty"`
	CustomerEmail   string          `json:"customer_email,omitempty"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	PaidAt          time.Time       `json:"paid_at"`
}

type Publisher interface {
	PublishOrderPaid(ctx context.Context, event OrderPaidEvent) error
}

// RabbitPublisher dials per publish; order events are low volume
type RabbitPublisher struct {
	url   string
	queue string
}

func NewRabbitPublisher(url, queue string) *RabbitPublisher {
	return &RabbitPublisher{url: url, queue: queue}
}

func (p *RabbitPublisher) PublishOrderPaid(ctx context.Context, event OrderPaidEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order.paid event: %w", err)
	}
	return p.publish(ctx, body)
}

func (p *RabbitPublisher) publish(ctx context.Context, body []byte) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Durable queue, declare is idempotent
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}

	return nil
}

// NoopPublisher is used when RABBITMQ_URL is not configured
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderPaid(_ context.Context, event OrderPaidEvent) error {
	log.Debug().Str("order_id", event.OrderID).Msg("order.paid event dropped: no broker configured")
	return nil
}

// NewPublisher picks RabbitPublisher when url is set
func NewPublisher(url, queue string) Publisher {
	if url == "" {
		return NoopPublisher{}
	}
	return NewRabbitPublisher(url, queue)
}
