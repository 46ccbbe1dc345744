package checkout

import (
	"time"

	"github.com/nordrein/webshop/internal/cart"
)

type CartSnapshotItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Slug        string  `json:"slug"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

// CartSnapshot is the full cart captured at checkout time. The cart itself
// keeps changing while payment is in flight; the snapshot is what the
// visitor actually pays for.
type CartSnapshot struct {
	Items        []CartSnapshotItem `json:"items"`
	Subtotal     float64            `json:"subtotal"`
	ShippingCost float64            `json:"shipping_cost"`
	TotalAmount  float64            `json:"total_amount"`
	Currency     string             `json:"currency"`
	CapturedAt   time.Time          `json:"captured_at"`
}

// SnapshotCart freezes the current cart state and its derived totals.
func SnapshotCart(state cart.State, summary cart.Summary, currency string, now time.Time) CartSnapshot {
	items := make([]CartSnapshotItem, len(state.Items))
	for i, item := range state.Items {
		items[i] = CartSnapshotItem{
			ProductID:   item.ID,
			ProductName: item.Name,
			Slug:        item.Slug,
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
			Subtotal:    item.Price * float64(item.Quantity),
		}
	}

	return CartSnapshot{
		Items:        items,
		Subtotal:     summary.Subtotal,
		ShippingCost: summary.ShippingCost,
		TotalAmount:  summary.Total,
		Currency:     currency,
		CapturedAt:   now,
	}
}
