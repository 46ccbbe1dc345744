package catalog

import (
	"errors"
	"time"
)

var ErrProductNotFound = errors.New("product not found")

// Product is one entry in the webshop catalog. The cart keeps its own copy
// of the fields it needs, so later catalog edits never rewrite a cart.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"image_url"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}
