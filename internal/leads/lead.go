package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Contact is the final step of the lead form.
type Contact struct {
	Name     string `bson:"name" json:"name"`
	Email    string `bson:"email" json:"email"`
	Phone    string `bson:"phone" json:"phone"`
	Postcode string `bson:"postcode" json:"postcode"`
	Message  string `bson:"message" json:"message"`
}

// Lead is one completed multi-step quote request from the marketing site.
type Lead struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Service      string    `bson:"service" json:"service"`
	PropertyType string    `bson:"property_type" json:"property_type"`
	Size         int       `bson:"size" json:"size"`
	Frequency    string    `bson:"frequency" json:"frequency"`
	Extras       []string  `bson:"extras" json:"extras"`
	Contact      Contact   `bson:"contact" json:"contact"`
	Source       string    `bson:"source" json:"source"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// ValidationError reports the first form field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid lead: %s %s", e.Field, e.Reason)
}

// Validate checks the fields a submission cannot do without. Optional
// steps (frequency, extras, phone, message) are accepted as-is.
func (l *Lead) Validate() error {
	if strings.TrimSpace(l.Service) == "" {
		return &ValidationError{Field: "service", Reason: "is required"}
	}
	if l.Size < 0 {
		return &ValidationError{Field: "size", Reason: "must not be negative"}
	}
	if strings.TrimSpace(l.Contact.Name) == "" {
		return &ValidationError{Field: "contact.name", Reason: "is required"}
	}
	if !validEmail(l.Contact.Email) {
		return &ValidationError{Field: "contact.email", Reason: "is not a valid address"}
	}
	return nil
}

// validEmail is a shape check, not RFC validation. The address only has
// to be plausible enough to contact.
func validEmail(s string) bool {
	at := strings.Index(s, "@")
	if at < 1 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	if strings.Contains(domain, "@") || !strings.Contains(domain, ".") {
		return false
	}
	return !strings.ContainsAny(s, " \t\n")
}

var ErrLeadNotFound = errors.New("lead not found")

// Repository defines the interface for lead storage.
// Consumers define this interface, not the MongoDB implementation.
type Repository interface {
	Submit(ctx context.Context, lead *Lead) error
	ListRecent(ctx context.Context, limit int) ([]*Lead, error)
}
