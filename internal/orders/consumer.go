package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/nordrein/webshop/internal/checkout"
)

// Consumer turns checkout.completed events into durable orders.
type Consumer struct {
	repo   OrderRepository
	reader *kafka.Reader
	logger *slog.Logger
}

func NewConsumer(repo OrderRepository, logger *slog.Logger, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    checkout.Topic,
		GroupID:  "orders-consumer",
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

// handleEvent creates an order from one checkout.completed payload.
// Malformed events are logged and dropped; a duplicate checkout id means
// the order already exists and is skipped.
func (c *Consumer) handleEvent(ctx context.Context, payload []byte) {
	var event checkout.CompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		c.logger.Error("error parsing checkout event", "error", err)
		return
	}

	checkoutID, err := uuid.Parse(event.CheckoutID)
	if err != nil {
		c.logger.Error("invalid checkout_id in event", "checkout_id", event.CheckoutID, "error", err)
		return
	}

	currency := event.Currency
	if currency == "" {
		currency = "EUR"
	}

	items := make([]OrderItem, len(event.Items))
	for i, item := range event.Items {
		items[i] = OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Slug:        item.Slug,
			Quantity:    item.Quantity,
			Price:       item.UnitPrice,
		}
	}

	order := &Order{
		ID:           uuid.New(),
		CheckoutID:   checkoutID,
		SessionKey:   event.SessionKey,
		Subtotal:     event.Subtotal,
		ShippingCost: event.ShippingCost,
		TotalAmount:  event.TotalAmount,
		Currency:     currency,
		Status:       OrderStatusConfirmed,
		Items:        items,
	}

	if err := c.repo.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, ErrDuplicateCheckout) {
			c.logger.Info("order already exists, skipping", "checkout_id", event.CheckoutID)
			return
		}
		c.logger.Error("failed to create order", "checkout_id", event.CheckoutID, "error", err)
		return
	}

	c.logger.Info("order created", "order_id", order.ID, "checkout_id", order.CheckoutID)
}
