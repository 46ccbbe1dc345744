package checkout

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Topic carries checkout.completed events to the worker consumers.
const Topic = "checkout-events"

// EventWriter is the slice of kafka.Writer the poller uses.
type EventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxPoller drains the checkout outbox into Kafka and recovers sessions
// that finished payment but never got their completion event written.
type OutboxPoller struct {
	eventTick    time.Duration
	recoveryTick time.Duration
	repo         RepoInterface
	writer       EventWriter
	logger       *slog.Logger
}

func NewOutboxPoller(repo RepoInterface, logger *slog.Logger, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxPoller{
		eventTick:    time.Second,
		recoveryTick: 5 * time.Second,
		repo:         repo,
		writer:       w,
		logger:       logger,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	recoveryTicker := time.NewTicker(p.recoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.recoverStuckSessions(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, 100)
	if err != nil {
		p.logger.Error("failed to fetch outbox events", "error", err)
		return
	}

	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.logger.Error("failed to publish outbox event", "event_id", event.ID, "error", err)
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.logger.Error("failed to mark outbox event processed", "event_id", event.ID, "error", err)
		}
	}
}

// recoverStuckSessions writes the missing completion event for sessions
// stuck in PAYMENT_COMPLETED, rebuilding the payload from the stored cart
// snapshot.
func (p *OutboxPoller) recoverStuckSessions(ctx context.Context) {
	sessions, err := p.repo.GetStuckSessions(ctx)
	if err != nil {
		p.logger.Error("failed to get stuck sessions", "error", err)
		return
	}

	for _, session := range sessions {
		p.logger.Info("recovering stuck checkout session", "checkout_id", session.ID)

		var snapshot CartSnapshot
		if err := json.Unmarshal(session.CartSnapshot, &snapshot); err != nil {
			p.logger.Error("failed to unmarshal cart snapshot", "checkout_id", session.ID, "error", err)
			continue
		}

		event := CompletedEvent{
			CheckoutID:   session.ID,
			SessionKey:   session.SessionKey,
			Items:        snapshot.Items,
			Subtotal:     snapshot.Subtotal,
			ShippingCost: snapshot.ShippingCost,
			TotalAmount:  snapshot.TotalAmount,
			Currency:     snapshot.Currency,
			CompletedAt:  session.UpdatedAt,
		}
		payload, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("failed to marshal completion payload", "checkout_id", session.ID, "error", err)
			continue
		}

		if err := p.repo.CompleteSession(ctx, session.ID, payload); err != nil {
			p.logger.Error("failed to complete session in poller", "checkout_id", session.ID, "error", err)
			continue
		}

		p.logger.Info("checkout session recovered", "checkout_id", session.ID)
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // checkout_id, keeps per-checkout ordering
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
