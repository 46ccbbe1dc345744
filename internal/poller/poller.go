// Package poller clears a visitor's cart once their checkout completes.
// The cart store owns the in-memory state and its snapshot, so the poller
// goes through the store rather than touching storage directly.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/nordrein/webshop/internal/cart"
	"github.com/nordrein/webshop/internal/checkout"
)

// CartClearer is the slice of the cart store the poller needs.
type CartClearer interface {
	ClearCart(ctx context.Context, sessionID string)
	CloseCart(ctx context.Context, sessionID string)
}

type Poller struct {
	carts     CartClearer
	snapshots cart.SnapshotStore
	reader    *kafka.Reader
	logger    *slog.Logger
}

func NewPoller(carts CartClearer, snapshots cart.SnapshotStore, logger *slog.Logger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    checkout.Topic,
		GroupID:  "cart-clear-consumer",
		MaxBytes: 10e6, // 10MB
	})
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{carts: carts, snapshots: snapshots, reader: reader, logger: logger}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.processMessage(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.logger.Error("error closing kafka reader", "error", err)
	}
}

func (p *Poller) processMessage(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		p.logger.Error("error reading message", "error", err)
		return
	}

	p.handleEvent(ctx, m.Value)
}

func (p *Poller) handleEvent(ctx context.Context, payload []byte) {
	var event checkout.CompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		p.logger.Error("error parsing checkout event", "error", err)
		return
	}
	if event.SessionKey == "" {
		p.logger.Error("missing session_key in checkout event", "checkout_id", event.CheckoutID)
		return
	}

	p.carts.ClearCart(ctx, event.SessionKey)
	p.carts.CloseCart(ctx, event.SessionKey)

	if err := p.snapshots.Delete(ctx, event.SessionKey); err != nil {
		p.logger.Warn("failed to delete cart snapshot", "session_key", event.SessionKey, "error", err)
	}

	p.logger.Info("cart cleared after checkout", "session_key", event.SessionKey, "checkout_id", event.CheckoutID)
}
