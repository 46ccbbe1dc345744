package orders

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordrein/webshop/internal/checkout"
)

type mockOrderRepo struct {
	created []*Order
	err     error
}

func (m *mockOrderRepo) CreateOrder(_ context.Context, order *Order) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, order)
	return nil
}

func (m *mockOrderRepo) GetOrderByID(context.Context, uuid.UUID) (*Order, error) {
	return nil, ErrOrderNotFound
}

func (m *mockOrderRepo) ListOrdersBySession(context.Context, string) ([]*Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) RunMigrations(*Credentials) error { return nil }
func (m *mockOrderRepo) Close() error                     { return nil }

func testConsumer(repo OrderRepository) *Consumer {
	return &Consumer{repo: repo, logger: slog.Default()}
}

func completedPayload(t *testing.T) []byte {
	t.Helper()
	event := checkout.CompletedEvent{
		CheckoutID: uuid.NewString(),
		SessionKey: "visitor-1",
		Items: []checkout.CartSnapshotItem{
			{ProductID: "p1", ProductName: "Soap", Slug: "soap", Quantity: 3, UnitPrice: 12.50, Subtotal: 37.50},
		},
		Subtotal:     37.50,
		ShippingCost: 4.95,
		TotalAmount:  42.45,
		Currency:     "EUR",
	}
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return raw
}

func TestHandleEvent_CreatesOrder(t *testing.T) {
	repo := &mockOrderRepo{}
	c := testConsumer(repo)

	c.handleEvent(context.Background(), completedPayload(t))

	require.Len(t, repo.created, 1)
	order := repo.created[0]
	assert.Equal(t, "visitor-1", order.SessionKey)
	assert.Equal(t, OrderStatusConfirmed, order.Status)
	assert.InDelta(t, 42.45, order.TotalAmount, 0.001)
	assert.InDelta(t, 4.95, order.ShippingCost, 0.001)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "p1", order.Items[0].ProductID)
	assert.Equal(t, "Soap", order.Items[0].ProductName)
	assert.InDelta(t, 12.50, order.Items[0].Price, 0.001)
}

func TestHandleEvent_MalformedPayloadIsDropped(t *testing.T) {
	repo := &mockOrderRepo{}
	c := testConsumer(repo)

	c.handleEvent(context.Background(), []byte("{not json"))

	assert.Empty(t, repo.created)
}

func TestHandleEvent_InvalidCheckoutIDIsDropped(t *testing.T) {
	repo := &mockOrderRepo{}
	c := testConsumer(repo)

	payload, err := json.Marshal(checkout.CompletedEvent{CheckoutID: "not-a-uuid"})
	require.NoError(t, err)

	c.handleEvent(context.Background(), payload)

	assert.Empty(t, repo.created)
}

func TestHandleEvent_DuplicateCheckoutIsSkipped(t *testing.T) {
	repo := &mockOrderRepo{err: ErrDuplicateCheckout}
	c := testConsumer(repo)

	// Must not panic or retry forever; the duplicate is simply ignored.
	c.handleEvent(context.Background(), completedPayload(t))

	assert.Empty(t, repo.created)
}

func TestHandleEvent_EmptyCurrencyDefaults(t *testing.T) {
	repo := &mockOrderRepo{}
	c := testConsumer(repo)

	event := checkout.CompletedEvent{CheckoutID: uuid.NewString(), SessionKey: "v1"}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	c.handleEvent(context.Background(), payload)

	require.Len(t, repo.created, 1)
	assert.Equal(t, "EUR", repo.created[0].Currency)
}
