package cart

import (
	"errors"
	"fmt"
	"math"
)

// Shipping rules for the webshop. Orders at or above the threshold ship
// free, everything below pays the flat default fee.
const (
	FreeShippingThreshold = 50.00
	DefaultShippingFee    = 4.95
)

// SnapshotVersion tags persisted cart snapshots. Bumping it invalidates
// every stored snapshot; carts then start empty on next load.
const SnapshotVersion = 1

var ErrInvalidProduct = errors.New("invalid product reference")

// LineItem is one product's presence in the cart. Name, Price and Image are
// captured when the item is first added and are not re-synced against the
// live catalog afterwards.
type LineItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
	Quantity int     `json:"quantity"`
}

// State is the full cart of one visitor session: line items in the order
// they were first added, plus the side-panel visibility flag. The flag is
// UI state, but it shares the cart's persistence lifecycle so it lives here.
type State struct {
	Items  []LineItem `json:"items"`
	IsOpen bool       `json:"is_open"`
}

// Snapshot is the serialized form written to the snapshot store.
type Snapshot struct {
	Version int        `json:"version"`
	Items   []LineItem `json:"items"`
	IsOpen  bool       `json:"is_open"`
}

// Summary holds the derived checkout totals. It is recomputed on demand and
// never persisted.
type Summary struct {
	ItemCount               int     `json:"item_count"`
	Subtotal                float64 `json:"subtotal"`
	ShippingCost            float64 `json:"shipping_cost"`
	Total                   float64 `json:"total"`
	FreeShippingThreshold   float64 `json:"free_shipping_threshold"`
	AmountUntilFreeShipping float64 `json:"amount_until_free_shipping"`
}

// Summarize computes the totals for a set of line items.
//
// Note that an empty cart still reports the default shipping fee; the
// threshold formula is applied literally. Checkout rejects empty carts
// before any fee could be charged.
func Summarize(items []LineItem) Summary {
	var count int
	var subtotal float64
	for _, item := range items {
		count += item.Quantity
		subtotal += item.Price * float64(item.Quantity)
	}

	shipping := DefaultShippingFee
	if subtotal >= FreeShippingThreshold {
		shipping = 0
	}

	remaining := FreeShippingThreshold - subtotal
	if remaining < 0 {
		remaining = 0
	}

	return Summary{
		ItemCount:               count,
		Subtotal:                subtotal,
		ShippingCost:            shipping,
		Total:                   subtotal + shipping,
		FreeShippingThreshold:   FreeShippingThreshold,
		AmountUntilFreeShipping: remaining,
	}
}

// ProductRef is the input shape for AddItem. Callers build it from the
// catalog product; only the fields the cart keeps are required.
type ProductRef struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Slug   string   `json:"slug"`
	Price  float64  `json:"price"`
	Images []string `json:"images,omitempty"`
}

// Validate checks the reference before a line item is built from it. A bad
// price would otherwise silently corrupt every derived total.
func (r ProductRef) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidProduct)
	}
	if r.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidProduct)
	}
	if r.Slug == "" {
		return fmt.Errorf("%w: missing slug", ErrInvalidProduct)
	}
	if math.IsNaN(r.Price) || math.IsInf(r.Price, 0) {
		return fmt.Errorf("%w: price is not a finite number", ErrInvalidProduct)
	}
	if r.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	return nil
}

// image returns the display image for a new line item: the first catalog
// image, or empty when the product has none.
func (r ProductRef) image() string {
	if len(r.Images) == 0 {
		return ""
	}
	return r.Images[0]
}
