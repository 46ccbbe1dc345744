package orders

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
)

type OrderItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Slug        string  `json:"slug"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// Order is the durable record of a completed checkout, shown on the
// account's order history page.
type Order struct {
	ID           uuid.UUID   `json:"id"`
	CheckoutID   uuid.UUID   `json:"checkout_id"`
	SessionKey   string      `json:"-"`
	Subtotal     float64     `json:"subtotal"`
	ShippingCost float64     `json:"shipping_cost"`
	TotalAmount  float64     `json:"total_amount"`
	Currency     string      `json:"currency"`
	Status       OrderStatus `json:"status"`
	Items        []OrderItem `json:"items"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
