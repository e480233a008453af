// Package notify announces storefront events on Kafka. Publishing is fire
// and forget from the shopper's point of view: checkout never blocks on the
// broker beyond the write itself, and failures are logged, not surfaced.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eluvju/wapp-shop-express/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventOrderSubmitted = "order_submitted"

// messageWriter is the slice of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer messageWriter
	log    *zap.Logger
}

func NewPublisher(log *zap.Logger, topic string, brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, log: log}
}

// orderEvent is the wire payload for order announcements.
type orderEvent struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	TotalAmount float64   `json:"total_amount"`
	ItemCount   int       `json:"item_count"`
	CouponCode  string    `json:"coupon_code,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// OrderSubmitted publishes one message keyed by order id for ordering.
func (p *Publisher) OrderSubmitted(ctx context.Context, order *domain.Order) error {
	count := 0
	for _, it := range order.Items {
		count += it.Quantity
	}

	payload, err := json.Marshal(orderEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		ItemCount:   count,
		CouponCode:  order.CouponCode,
		SubmittedAt: order.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderSubmitted)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warn("publishing order event failed",
			zap.String("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("publish order event: %w", err)
	}

	p.log.Info("order event published", zap.String("order_id", order.ID))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
