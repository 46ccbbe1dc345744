package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nordrein/webshop/internal/checkout"
)

// CheckoutService drives the payment flow.
type CheckoutService interface {
	Initiate(ctx context.Context, sessionKey, idempotencyKey, returnURL string) (*checkout.Session, error)
	Confirm(ctx context.Context, checkoutID string) (*checkout.Session, error)
	Get(ctx context.Context, checkoutID string) (*checkout.Session, error)
}

type CheckoutHandler struct {
	service CheckoutService
}

func NewCheckoutHandler(service CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

type InitiateCheckoutRequestDTO struct {
	ReturnURL string `json:"return_url"`
}

type CheckoutResponseDTO struct {
	CheckoutID    string  `json:"checkout_id"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	RedirectURL   string  `json:"redirect_url,omitempty"`
	FailureReason string  `json:"failure_reason,omitempty"`
}

func checkoutResponse(session *checkout.Session) CheckoutResponseDTO {
	return CheckoutResponseDTO{
		CheckoutID:    session.ID,
		Status:        string(session.Status),
		Amount:        session.Amount,
		Currency:      session.Currency,
		RedirectURL:   session.RedirectURL,
		FailureReason: session.FailureReason,
	}
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	sessionKey := getSessionKey(r.Context())

	idempotencyKey := r.Header.Get("Idempotency-Key")
	if idempotencyKey == "" {
		respondError(w, http.StatusBadRequest, "missing_idempotency_key",
			"Idempotency-Key header is required")
		return
	}

	var req InitiateCheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	session, err := h.service.Initiate(r.Context(), sessionKey, idempotencyKey, req.ReturnURL)
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, checkoutResponse(session))
}

// POST /api/v1/checkout/{id}/confirm
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	checkoutID := chi.URLParam(r, "id")

	session, err := h.service.Confirm(r.Context(), checkoutID)
	if err != nil {
		if errors.Is(err, checkout.ErrPaymentDeclined) && session != nil {
			// Declined is a final answer, not a transport failure; the
			// frontend renders it from the session state.
			respondJSON(w, http.StatusOK, checkoutResponse(session))
			return
		}
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, checkoutResponse(session))
}

// GET /api/v1/checkout/{id}
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	checkoutID := chi.URLParam(r, "id")

	session, err := h.service.Get(r.Context(), checkoutID)
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, checkoutResponse(session))
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", "cart is empty, nothing to checkout")
	case errors.Is(err, checkout.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "not_found", "checkout session not found")
	case errors.Is(err, checkout.ErrPaymentDeclined):
		respondError(w, http.StatusPaymentRequired, "payment_declined", "payment was declined")
	case errors.Is(err, checkout.IllegalTransitionError):
		respondError(w, http.StatusConflict, "illegal_transition", "checkout is not in a confirmable state")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
