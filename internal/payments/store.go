package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Payout statuses. A payout is created pending before the provider call so
// a crash between the on-chain settle and the API call leaves a retryable
// record instead of silently dropped money.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// ErrNotFound is returned when no payout exists for a transaction hash.
var ErrNotFound = errors.New("payout not found")

// Payout is one off-chain delivery, keyed by the settling transaction hash.
type Payout struct {
	TxHash      string
	Phone       string
	LocalAmount string
	Currency    string
	Network     string
	Status      string
	ReceiptID   string
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store is the local payout ledger.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS payouts (
	tx_hash      TEXT PRIMARY KEY,
	phone        TEXT NOT NULL,
	local_amount TEXT NOT NULL,
	currency     TEXT NOT NULL,
	network      TEXT NOT NULL,
	status       TEXT NOT NULL,
	receipt_id   TEXT NOT NULL DEFAULT '',
	last_error   TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_payouts_status ON payouts(status);
`

// OpenStore opens (and if needed initializes) the payout database at path.
// Use ":memory:" for an ephemeral store.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening payout db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing payout db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreatePending records a payout before the provider is called. Duplicate
// hashes are rejected; the caller should read the existing record instead.
func (s *Store) CreatePending(ctx context.Context, p Payout) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payouts (tx_hash, phone, local_amount, currency, network, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.TxHash, p.Phone, p.LocalAmount, p.Currency, p.Network, StatusPending, now, now,
	)
	if err != nil {
		return fmt.Errorf("recording pending payout: %w", err)
	}
	return nil
}

// Get fetches the payout for a transaction hash.
func (s *Store) Get(ctx context.Context, txHash string) (*Payout, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT tx_hash, phone, local_amount, currency, network, status, receipt_id, last_error, created_at, updated_at
		FROM payouts WHERE tx_hash = ?`, txHash)

	var p Payout
	err := row.Scan(&p.TxHash, &p.Phone, &p.LocalAmount, &p.Currency, &p.Network,
		&p.Status, &p.ReceiptID, &p.LastError, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading payout: %w", err)
	}
	return &p, nil
}

// MarkCompleted records the provider's receipt for a payout.
func (s *Store) MarkCompleted(ctx context.Context, txHash, receiptID string) error {
	return s.setStatus(ctx, txHash, StatusCompleted, receiptID, "")
}

// MarkFailed records a terminal provider rejection.
func (s *Store) MarkFailed(ctx context.Context, txHash, reason string) error {
	return s.setStatus(ctx, txHash, StatusFailed, "", reason)
}

// RecordAttempt keeps a payout pending but notes why the last try failed.
func (s *Store) RecordAttempt(ctx context.Context, txHash, reason string) error {
	return s.setStatus(ctx, txHash, StatusPending, "", reason)
}

// Pending returns payouts still awaiting a successful provider call, oldest
// first.
func (s *Store) Pending(ctx context.Context) ([]Payout, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tx_hash, phone, local_amount, currency, network, status, receipt_id, last_error, created_at, updated_at
		FROM payouts WHERE status = ? ORDER BY created_at ASC`, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("listing pending payouts: %w", err)
	}
	defer rows.Close()

	var out []Payout
	for rows.Next() {
		var p Payout
		if err := rows.Scan(&p.TxHash, &p.Phone, &p.LocalAmount, &p.Currency, &p.Network,
			&p.Status, &p.ReceiptID, &p.LastError, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) setStatus(ctx context.Context, txHash, status, receiptID, lastError string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE payouts SET status = ?, receipt_id = ?, last_error = ?, updated_at = ?
		WHERE tx_hash = ?`,
		status, receiptID, lastError, time.Now().UTC(), txHash,
	)
	if err != nil {
		return fmt.Errorf("updating payout: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
