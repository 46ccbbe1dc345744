package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Cart          *CartHandler
	Products      *ProductHandler
	Checkout      *CheckoutHandler
	Orders        *OrdersHandler
	Notifications *NotificationHandler
	Leads         *LeadsHandler
}

// NewRouter builds the public API surface. All stateful routes run behind
// the session cookie middleware.
func NewRouter(h Handlers, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(SessionKeyMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/{slug}", h.Products.GetBySlug)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{id}", h.Cart.UpdateQuantity)
			r.Delete("/items/{id}", h.Cart.RemoveItem)
			r.Post("/open", h.Cart.OpenCart)
			r.Post("/close", h.Cart.CloseCart)
			r.Post("/toggle", h.Cart.ToggleCart)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", h.Checkout.Initiate)
			r.Get("/{id}", h.Checkout.Get)
			r.Post("/{id}/confirm", h.Checkout.Confirm)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.Orders.List)
			r.Get("/{id}", h.Orders.Get)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.Notifications.List)
			r.Post("/{id}/read", h.Notifications.MarkRead)
		})

		r.Post("/leads", h.Leads.Submit)
	})

	return r
}
