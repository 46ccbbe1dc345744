package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nordrein/webshop/internal/cart"
	"github.com/nordrein/webshop/internal/catalog"
)

// CartStore is the slice of the cart store the HTTP layer uses.
// Consumers define this interface, not the store implementation.
type CartStore interface {
	Get(ctx context.Context, sessionID string) cart.State
	Summary(ctx context.Context, sessionID string) cart.Summary
	AddItem(ctx context.Context, sessionID string, ref cart.ProductRef, quantity int)
	UpdateQuantity(ctx context.Context, sessionID, id string, quantity int)
	RemoveItem(ctx context.Context, sessionID, id string)
	ClearCart(ctx context.Context, sessionID string)
	OpenCart(ctx context.Context, sessionID string)
	CloseCart(ctx context.Context, sessionID string)
	ToggleCart(ctx context.Context, sessionID string)
}

// ProductLookup resolves the product a cart mutation refers to.
type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

type CartHandler struct {
	carts    CartStore
	products ProductLookup
}

func NewCartHandler(carts CartStore, products ProductLookup) *CartHandler {
	return &CartHandler{carts: carts, products: products}
}

// AddItemRequestDTO carries the cart add payload. Quantity is a pointer so
// an omitted field (defaults to 1) can be told apart from an explicit zero
// (rejected).
type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// CartResponseDTO is the state plus derived summary the frontend renders
// the cart panel from.
type CartResponseDTO struct {
	Items   []cart.LineItem `json:"items"`
	IsOpen  bool            `json:"is_open"`
	Summary cart.Summary    `json:"summary"`
}

func (h *CartHandler) cartResponse(ctx context.Context, sessionKey string) CartResponseDTO {
	state := h.carts.Get(ctx, sessionKey)
	items := state.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	return CartResponseDTO{
		Items:   items,
		IsOpen:  state.IsOpen,
		Summary: h.carts.Summary(ctx, sessionKey),
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionKey := getSessionKey(r.Context())
	respondJSON(w, http.StatusOK, h.cartResponse(r.Context(), sessionKey))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionKey := getSessionKey(r.Context())

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity < 1 || quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.products.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	ref := cart.ProductRef{
		ID:    product.ID,
		Name:  product.Name,
		Slug:  product.Slug,
		Price: product.Price,
	}
	if product.ImageURL != "" {
		ref.Images = []string{product.ImageURL}
	}
	if err := ref.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	h.carts.AddItem(r.Context(), sessionKey, ref, quantity)
	respondJSON(w, http.StatusCreated, h.cartResponse(r.Context(), sessionKey))
}

// PUT /api/v1/cart/items/{id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	sessionKey := getSessionKey(r.Context())
	id := chi.URLParam(r, "id")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at most 99")
		return
	}

	h.carts.UpdateQuantity(r.Context(), sessionKey, id, req.Quantity)
	respondJSON(w, http.StatusOK, h.cartResponse(r.Context(), sessionKey))
}

// DELETE /api/v1/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionKey := getSessionKey(r.Context())
	id := chi.URLParam(r, "id")

	h.carts.RemoveItem(r.Context(), sessionKey, id)
	respondJSON(w, http.StatusOK, h.cartResponse(r.Context(), sessionKey))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sessionKey := getSessionKey(r.Context())

	h.carts.ClearCart(r.Context(), sessionKey)
	respondJSON(w, http.StatusOK, h.cartResponse(r.Context(), sessionKey))
}

// POST /api/v1/cart/open
func (h *CartHandler) OpenCart(w http.ResponseWriter, r *http.Request) {
	sessionKey := getSessionKey(r.Context())

	h.carts.OpenCart(r.Context(), sessionKey)
	respondJSON(w, http.StatusOK, h.cartResponse(r.Context(), sessionKey))
}

// POST /api/v1/cart/close
func (h *CartHandler) CloseCart(w http.ResponseWriter, r *http.Request) {
	sessionKey := getSessionKey(r.Context())

	h.carts.CloseCart(r.Context(), sessionKey)
	respondJSON(w, http.StatusOK, h.cartResponse(r.Context(), sessionKey))
}

// POST /api/v1/cart/toggle
func (h *CartHandler) ToggleCart(w http.ResponseWriter, r *http.Request) {
	sessionKey := getSessionKey(r.Context())

	h.carts.ToggleCart(r.Context(), sessionKey)
	respondJSON(w, http.StatusOK, h.cartResponse(r.Context(), sessionKey))
}
