package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nordrein/webshop/internal/orders"
)

// OrderReader is the read surface of the order history.
type OrderReader interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (*orders.Order, error)
	ListOrdersBySession(ctx context.Context, sessionKey string) ([]*orders.Order, error)
}

type OrdersHandler struct {
	orders OrderReader
}

func NewOrdersHandler(reader OrderReader) *OrdersHandler {
	return &OrdersHandler{orders: reader}
}

type OrdersResponse struct {
	Orders []*orders.Order `json:"orders"`
}

// GET /api/v1/orders
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionKey := getSessionKey(r.Context())

	list, err := h.orders.ListOrdersBySession(r.Context(), sessionKey)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if list == nil {
		list = []*orders.Order{}
	}

	respondJSON(w, http.StatusOK, OrdersResponse{Orders: list})
}

// GET /api/v1/orders/{id}
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionKey := getSessionKey(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a uuid")
		return
	}

	order, err := h.orders.GetOrderByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	// Another visitor's order looks exactly like a missing one.
	if order.SessionKey != sessionKey {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}

	respondJSON(w, http.StatusOK, order)
}
