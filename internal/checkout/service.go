package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nordrein/webshop/internal/cart"
)

// CartReader is the slice of the cart store the checkout flow needs. The
// totals are derived from the returned state, so the snapshot and the
// charged amount always describe the same cart.
type CartReader interface {
	Get(ctx context.Context, sessionID string) cart.State
}

// CompletedEvent is the payload of a checkout.completed outbox event. The
// worker consumers (orders, notifications, cart clearing) all decode this
// shape.
type CompletedEvent struct {
	CheckoutID   string             `json:"checkout_id"`
	SessionKey   string             `json:"session_key"`
	Items        []CartSnapshotItem `json:"items"`
	Subtotal     float64            `json:"subtotal"`
	ShippingCost float64            `json:"shipping_cost"`
	TotalAmount  float64            `json:"total_amount"`
	Currency     string             `json:"currency"`
	CompletedAt  time.Time          `json:"completed_at"`
}

type Service struct {
	repo     RepoInterface
	carts    CartReader
	gateway  PaymentGateway
	currency string
	logger   *slog.Logger
}

func NewService(repo RepoInterface, carts CartReader, gateway PaymentGateway, currency string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		carts:    carts,
		gateway:  gateway,
		currency: currency,
		logger:   logger,
	}
}

// Initiate starts a checkout for the visitor's current cart and requests a
// hosted payment page from the gateway. Replaying the same idempotency key
// returns the original session instead of charging twice.
func (s *Service) Initiate(ctx context.Context, sessionKey, idempotencyKey, returnURL string) (*Session, error) {
	existing, err := s.repo.GetSessionByIdempotencyKey(ctx, idempotencyKey)
	if err != nil && !errors.Is(err, ErrIdempotencyKeyNotFound) {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		// This checkout already exists; return the cached result
		// (could be COMPLETED, FAILED or still in flight).
		s.logger.Info("duplicate checkout request",
			"idempotency_key", idempotencyKey,
			"checkout_id", existing.ID,
			"status", existing.Status)
		return existing, nil
	}

	// One read of the cart; the summary is derived from the same state
	// that goes into the snapshot.
	state := s.carts.Get(ctx, sessionKey)
	summary := cart.Summarize(state.Items)
	if summary.ItemCount == 0 {
		return nil, ErrEmptyCart
	}

	snapshot := SnapshotCart(state, summary, s.currency, time.Now())
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal cart snapshot: %w", err)
	}

	session := &Session{
		ID:             uuid.NewString(),
		SessionKey:     sessionKey,
		IdempotencyKey: idempotencyKey,
		Status:         StatusInitiated,
		CartSnapshot:   snapshotJSON,
		Amount:         snapshot.TotalAmount,
		Currency:       snapshot.Currency,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		if errors.Is(err, ErrDuplicateSession) {
			// A concurrent request with the same idempotency key inserted
			// first. Return its session; the loser must not charge the
			// gateway for a checkout that was never stored.
			winner, getErr := s.repo.GetSessionByIdempotencyKey(ctx, idempotencyKey)
			if getErr != nil {
				return nil, fmt.Errorf("load winning checkout session: %w", getErr)
			}
			s.logger.Info("lost checkout creation race",
				"idempotency_key", idempotencyKey,
				"checkout_id", winner.ID,
				"status", winner.Status)
			return winner, nil
		}
		return nil, err
	}

	charge, err := s.gateway.CreateCharge(ctx, ChargeRequest{
		CheckoutID: session.ID,
		Amount:     session.Amount,
		Currency:   session.Currency,
		ReturnURL:  returnURL,
	})
	if err != nil {
		if failErr := s.repo.FailSession(ctx, session.ID, err.Error()); failErr != nil {
			s.logger.Error("failed to mark session failed", "checkout_id", session.ID, "error", failErr)
		}
		return nil, fmt.Errorf("create charge: %w", err)
	}
	if charge.Status == ChargeStatusDeclined {
		if failErr := s.repo.FailSession(ctx, session.ID, charge.Reason); failErr != nil {
			s.logger.Error("failed to mark session failed", "checkout_id", session.ID, "error", failErr)
		}
		return nil, ErrPaymentDeclined
	}

	if err := s.repo.SetPayment(ctx, session.ID, StatusPaymentPending, charge.PaymentID, charge.RedirectURL); err != nil {
		return nil, err
	}

	session.Status = StatusPaymentPending
	session.PaymentID = charge.PaymentID
	session.RedirectURL = charge.RedirectURL
	return session, nil
}

// Confirm handles the visitor's return from the hosted payment page. It
// verifies the charge with the gateway and, on success, records completion
// together with the checkout.completed outbox event.
func (s *Service) Confirm(ctx context.Context, checkoutID string) (*Session, error) {
	session, err := s.repo.GetSession(ctx, checkoutID)
	if err != nil {
		return nil, err
	}

	if session.Status.IsTerminal() {
		// Gateway webhooks and the browser redirect can both land here;
		// the second caller just sees the final state.
		return session, nil
	}
	if !CanTransitionTo(session.Status, StatusPaymentCompleted) {
		return nil, IllegalTransitionError
	}

	charge, err := s.gateway.GetCharge(ctx, session.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("verify charge: %w", err)
	}

	switch charge.Status {
	case ChargeStatusSucceeded:
		if err := s.repo.UpdateStatus(ctx, session.ID, StatusPaymentCompleted); err != nil {
			return nil, err
		}
		session.Status = StatusPaymentCompleted

		payload, err := s.completedPayload(session, time.Now())
		if err != nil {
			// The poller's stuck-session recovery will retry the event.
			s.logger.Error("failed to build completion payload", "checkout_id", session.ID, "error", err)
			return session, nil
		}
		if err := s.repo.CompleteSession(ctx, session.ID, payload); err != nil {
			s.logger.Error("failed to complete session", "checkout_id", session.ID, "error", err)
			return session, nil
		}
		session.Status = StatusCompleted
		return session, nil

	case ChargeStatusDeclined:
		if err := s.repo.FailSession(ctx, session.ID, charge.Reason); err != nil {
			return nil, err
		}
		session.Status = StatusFailed
		session.FailureReason = charge.Reason
		return session, ErrPaymentDeclined

	default:
		// Still pending at the gateway; nothing to record yet.
		return session, nil
	}
}

// Get returns a checkout session for the status endpoint.
func (s *Service) Get(ctx context.Context, checkoutID string) (*Session, error) {
	return s.repo.GetSession(ctx, checkoutID)
}

func (s *Service) completedPayload(session *Session, completedAt time.Time) ([]byte, error) {
	var snapshot CartSnapshot
	if err := json.Unmarshal(session.CartSnapshot, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}

	event := CompletedEvent{
		CheckoutID:   session.ID,
		SessionKey:   session.SessionKey,
		Items:        snapshot.Items,
		Subtotal:     snapshot.Subtotal,
		ShippingCost: snapshot.ShippingCost,
		TotalAmount:  snapshot.TotalAmount,
		Currency:     snapshot.Currency,
		CompletedAt:  completedAt,
	}
	return json.Marshal(event)
}
