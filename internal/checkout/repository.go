package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
)

var (
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")

	// ErrDuplicateSession means a concurrent request already inserted a
	// session with the same idempotency key.
	ErrDuplicateSession = errors.New("checkout session already exists for idempotency key")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// Session is a persisted checkout attempt.
type Session struct {
	ID             string
	SessionKey     string
	IdempotencyKey string
	Status         Status
	CartSnapshot   []byte
	Amount         float64
	Currency       string
	PaymentID      string
	RedirectURL    string
	FailureReason  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OutboxEvent is one unpublished domain event. Events are written in the
// same transaction as the status change they describe and published by the
// poller, so a crash never loses a completed checkout.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

type RepoInterface interface {
	GetSessionByIdempotencyKey(ctx context.Context, key string) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	CreateSession(ctx context.Context, session *Session) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	SetPayment(ctx context.Context, id string, status Status, paymentID, redirectURL string) error
	FailSession(ctx context.Context, id string, reason string) error
	CompleteSession(ctx context.Context, id string, eventPayload []byte) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, eventID int64) error
	GetStuckSessions(ctx context.Context) ([]*Session, error)
	RunMigrations(cred *Credentials) error
	Close() error
}

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "checkout_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

const sessionColumns = `id, session_key, idempotency_key, status, cart_snapshot, amount, currency,
	COALESCE(payment_id, ''), COALESCE(redirect_url, ''), COALESCE(failure_reason, ''), created_at, updated_at`

func (r *Repository) GetSessionByIdempotencyKey(ctx context.Context, key string) (*Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM checkout_sessions WHERE idempotency_key = $1`, sessionColumns)

	session, err := r.scanSession(r.db.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIdempotencyKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session by idempotency key: %w", err)
	}
	return session, nil
}

func (r *Repository) GetSession(ctx context.Context, id string) (*Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM checkout_sessions WHERE id = $1`, sessionColumns)

	session, err := r.scanSession(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session by id: %w", err)
	}
	return session, nil
}

func (r *Repository) scanSession(row *sql.Row) (*Session, error) {
	var s Session
	err := row.Scan(
		&s.ID,
		&s.SessionKey,
		&s.IdempotencyKey,
		&s.Status,
		&s.CartSnapshot,
		&s.Amount,
		&s.Currency,
		&s.PaymentID,
		&s.RedirectURL,
		&s.FailureReason,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) CreateSession(ctx context.Context, session *Session) error {
	query := `INSERT INTO checkout_sessions
		(id, session_key, idempotency_key, status, cart_snapshot, amount, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.SessionKey,
		session.IdempotencyKey,
		session.Status,
		session.CartSnapshot,
		session.Amount,
		session.Currency)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			// Concurrent request with the same idempotency key won the
			// race. The caller loads the winning row instead of carrying
			// on with a session that was never stored.
			return ErrDuplicateSession
		}
		return fmt.Errorf("insert checkout session: %w", err)
	}
	return nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status) error {
	query := `UPDATE checkout_sessions SET status = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update checkout status: %w", err)
	}
	return nil
}

func (r *Repository) SetPayment(ctx context.Context, id string, status Status, paymentID, redirectURL string) error {
	query := `UPDATE checkout_sessions
		SET status = $2, payment_id = $3, redirect_url = $4, updated_at = NOW()
		WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, paymentID, redirectURL); err != nil {
		return fmt.Errorf("set payment on checkout session: %w", err)
	}
	return nil
}

func (r *Repository) FailSession(ctx context.Context, id string, reason string) error {
	query := `UPDATE checkout_sessions
		SET status = $2, failure_reason = $3, updated_at = NOW()
		WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, StatusFailed, reason); err != nil {
		return fmt.Errorf("fail checkout session: %w", err)
	}
	return nil
}

// CompleteSession marks the session COMPLETED and writes the outbox event
// in one transaction.
func (r *Repository) CompleteSession(ctx context.Context, id string, eventPayload []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complete transaction: %w", err)
	}
	defer tx.Rollback()

	updateQuery := `UPDATE checkout_sessions SET status = $2, updated_at = NOW() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateQuery, id, StatusCompleted); err != nil {
		return fmt.Errorf("update session to completed: %w", err)
	}

	insertQuery := `INSERT INTO checkout_outbox (aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, NOW())`
	if _, err := tx.ExecContext(ctx, insertQuery, id, "checkout.completed", eventPayload); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit complete transaction: %w", err)
	}
	return nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at
		FROM checkout_outbox
		WHERE processed_at IS NULL
		ORDER BY id
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		e := &OutboxEvent{}
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, eventID int64) error {
	query := `UPDATE checkout_outbox SET processed_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, eventID); err != nil {
		return fmt.Errorf("mark outbox event processed: %w", err)
	}
	return nil
}

// GetStuckSessions finds sessions whose payment completed but whose outbox
// event was never written, typically after a crash between the two writes.
func (r *Repository) GetStuckSessions(ctx context.Context) ([]*Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM checkout_sessions s
		WHERE s.status = $1
		AND NOT EXISTS (
			SELECT 1 FROM checkout_outbox o WHERE o.aggregate_id = s.id
		)
		AND s.updated_at < NOW() - INTERVAL '1 minute'`, sessionColumnsAliased)

	rows, err := r.db.QueryContext(ctx, query, StatusPaymentCompleted)
	if err != nil {
		return nil, fmt.Errorf("query stuck sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var s Session
		err := rows.Scan(
			&s.ID,
			&s.SessionKey,
			&s.IdempotencyKey,
			&s.Status,
			&s.CartSnapshot,
			&s.Amount,
			&s.Currency,
			&s.PaymentID,
			&s.RedirectURL,
			&s.FailureReason,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan stuck session: %w", err)
		}
		sessions = append(sessions, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return sessions, nil
}

const sessionColumnsAliased = `s.id, s.session_key, s.idempotency_key, s.status, s.cart_snapshot, s.amount, s.currency,
	COALESCE(s.payment_id, ''), COALESCE(s.redirect_url, ''), COALESCE(s.failure_reason, ''), s.created_at, s.updated_at`

func (r *Repository) Close() error {
	return r.db.Close()
}
