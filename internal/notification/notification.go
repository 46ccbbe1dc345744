package notification

import (
	"context"
	"errors"
	"time"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Kind values for feed entries.
const (
	KindOrderConfirmed = "order_confirmed"
)

// Notification is one entry in a visitor's feed, shown in the account
// header dropdown.
type Notification struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	SessionKey string    `bson:"session_key" json:"-"`
	Kind       string    `bson:"kind" json:"kind"`
	Title      string    `bson:"title" json:"title"`
	Body       string    `bson:"body" json:"body"`
	Read       bool      `bson:"read" json:"read"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// Repository defines the interface for feed storage.
// Consumers define this interface, not the MongoDB implementation.
type Repository interface {
	Append(ctx context.Context, n *Notification) error
	ListBySession(ctx context.Context, sessionKey string, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, sessionKey, id string) error
}
