package checkout

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/nordrein/webshop/internal/cart"
)

// MockRepository implements RepoInterface for testing.
type MockRepository struct {
	Existing       *Session
	RefetchSession *Session
	GetKeyCalls    int
	GetErr         error
	CreatedSession *Session
	CreateErr      error
	Sessions       map[string]*Session
	StatusUpdates  []Status
	Payments       []string
	Failures       []string
	CompletedID    string
	CompletedBody  []byte
	CompleteErr    error
	Events         []*OutboxEvent
	EventsErr      error
	Processed      []int64
	Stuck          []*Session
}

func (m *MockRepository) GetSessionByIdempotencyKey(context.Context, string) (*Session, error) {
	m.GetKeyCalls++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.Existing != nil {
		return m.Existing, nil
	}
	// RefetchSession models a row inserted by a concurrent request: absent
	// on the first lookup, present once the insert has been attempted.
	if m.RefetchSession != nil && m.GetKeyCalls > 1 {
		return m.RefetchSession, nil
	}
	return nil, ErrIdempotencyKeyNotFound
}

func (m *MockRepository) GetSession(_ context.Context, id string) (*Session, error) {
	if s, ok := m.Sessions[id]; ok {
		return s, nil
	}
	return nil, ErrSessionNotFound
}

func (m *MockRepository) CreateSession(_ context.Context, session *Session) error {
	m.CreatedSession = session
	return m.CreateErr
}

func (m *MockRepository) UpdateStatus(_ context.Context, _ string, status Status) error {
	m.StatusUpdates = append(m.StatusUpdates, status)
	return nil
}

func (m *MockRepository) SetPayment(_ context.Context, _ string, status Status, paymentID, _ string) error {
	m.StatusUpdates = append(m.StatusUpdates, status)
	m.Payments = append(m.Payments, paymentID)
	return nil
}

func (m *MockRepository) FailSession(_ context.Context, _ string, reason string) error {
	m.Failures = append(m.Failures, reason)
	return nil
}

func (m *MockRepository) CompleteSession(_ context.Context, id string, payload []byte) error {
	if m.CompleteErr != nil {
		return m.CompleteErr
	}
	m.CompletedID = id
	m.CompletedBody = payload
	return nil
}

func (m *MockRepository) GetUnprocessedEvents(context.Context, int) ([]*OutboxEvent, error) {
	return m.Events, m.EventsErr
}

func (m *MockRepository) MarkEventAsProcessed(_ context.Context, eventID int64) error {
	m.Processed = append(m.Processed, eventID)
	return nil
}

func (m *MockRepository) GetStuckSessions(context.Context) ([]*Session, error) {
	return m.Stuck, nil
}

func (m *MockRepository) RunMigrations(*Credentials) error { return nil }
func (m *MockRepository) Close() error                     { return nil }

// MockGateway implements PaymentGateway for testing.
type MockGateway struct {
	CreateResult *ChargeResult
	CreateErr    error
	GetResult    *ChargeResult
	GetErr       error
	CreateCalls  int
}

func (m *MockGateway) CreateCharge(context.Context, ChargeRequest) (*ChargeResult, error) {
	m.CreateCalls++
	return m.CreateResult, m.CreateErr
}

func (m *MockGateway) GetCharge(context.Context, string) (*ChargeResult, error) {
	return m.GetResult, m.GetErr
}

// MockCarts implements CartReader with a fixed cart state.
type MockCarts struct {
	State    cart.State
	GetCalls int
}

func (m *MockCarts) Get(context.Context, string) cart.State {
	m.GetCalls++
	return m.State
}

// MockWriter captures published Kafka messages.
type MockWriter struct {
	Messages []kafka.Message
	Err      error
}

func (m *MockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, msgs...)
	return nil
}
