package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/nordrein/webshop/internal/checkout"
)

// Consumer appends an order-confirmed entry to the visitor's feed for
// every completed checkout.
type Consumer struct {
	repo   Repository
	reader *kafka.Reader
	logger *slog.Logger
}

func NewConsumer(repo Repository, logger *slog.Logger, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    checkout.Topic,
		GroupID:  "notification-consumer",
		MaxBytes: 10e6, // 10MB
	})
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{repo: repo, reader: reader, logger: logger}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("error closing kafka reader", "error", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Error("error reading message", "error", err)
		return
	}

	c.handleEvent(ctx, m.Value)
}

func (c *Consumer) handleEvent(ctx context.Context, payload []byte) {
	var event checkout.CompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		c.logger.Error("error parsing checkout event", "error", err)
		return
	}
	if event.SessionKey == "" {
		c.logger.Error("missing session_key in checkout event", "checkout_id", event.CheckoutID)
		return
	}

	n := &Notification{
		SessionKey: event.SessionKey,
		Kind:       KindOrderConfirmed,
		Title:      "Order confirmed",
		Body:       fmt.Sprintf("We received your payment of %.2f %s. Your order is being prepared.", event.TotalAmount, event.Currency),
	}

	if err := c.repo.Append(ctx, n); err != nil {
		c.logger.Error("failed to append notification", "session_key", event.SessionKey, "error", err)
		return
	}

	c.logger.Info("notification appended", "session_key", event.SessionKey, "checkout_id", event.CheckoutID)
}
