// Package sqlite provides a SQLite-backed implementation of
// order.Repository. Orders are stored one row each with the line items,
// transfer records and fee breakdown serialized as JSON columns —
// settlement reads and writes the order as a single document.
//
// WAL mode is enabled on Open so the webhook handler's writes never block
// the status endpoint's reads.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dealfynd/settlement/internal/order"

	// Register the pure-Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id                 TEXT PRIMARY KEY,
    currency           TEXT NOT NULL DEFAULT 'sek',
    subtotal_amount    REAL NOT NULL DEFAULT 0,
    shipping_amount    REAL NOT NULL DEFAULT 0,
    service_fee_amount REAL NOT NULL DEFAULT 0,
    status             TEXT NOT NULL,
    settlement_state   TEXT NOT NULL DEFAULT 'none',
    failure_reason     TEXT NOT NULL DEFAULT '',
    receipt_url        TEXT NOT NULL DEFAULT '',

    -- JSON documents: the settlement core reads/writes these wholesale.
    line_items         TEXT NOT NULL DEFAULT '[]',
    transfers          TEXT NOT NULL DEFAULT '[]',
    fees               TEXT,

    created_at         TEXT NOT NULL,
    updated_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, updated_at);
`

// Repository is the SQLite implementation of order.Repository.
type Repository struct {
	db *sql.DB
}

var _ order.Repository = (*Repository)(nil)

// Open opens (or creates) the SQLite database at the given path and applies
// the schema.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply orders schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close releases the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Create persists a new pending order.
func (r *Repository) Create(ctx context.Context, o *order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("sqlite: marshal items for order %q: %w", o.ID, err)
	}
	transfers, err := json.Marshal(o.Transfers)
	if err != nil {
		return fmt.Errorf("sqlite: marshal transfers for order %q: %w", o.ID, err)
	}
	if o.Transfers == nil {
		transfers = []byte("[]")
	}

	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	const q = `
		INSERT INTO orders
			(id, currency, subtotal_amount, shipping_amount, service_fee_amount,
			 status, settlement_state, failure_reason, receipt_url,
			 line_items, transfers, fees, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`

	_, err = r.db.ExecContext(ctx, q,
		o.ID, o.Currency, o.SubtotalAmount, o.ShippingAmount, o.ServiceFeeAmount,
		string(o.Status), string(o.SettlementState), o.FailureReason, o.ReceiptURL,
		string(items), string(transfers),
		formatTime(o.CreatedAt), formatTime(o.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: create order %q: %w", o.ID, err)
	}
	return nil
}

// Get loads one order, or order.ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (*order.Order, error) {
	const q = `
		SELECT id, currency, subtotal_amount, shipping_amount, service_fee_amount,
		       status, settlement_state, failure_reason, receipt_url,
		       line_items, transfers, COALESCE(fees, ''), created_at, updated_at
		FROM   orders
		WHERE  id = ?`

	row := r.db.QueryRowContext(ctx, q, id)

	var o order.Order
	var status, state, items, transfers, fees, createdAt, updatedAt string
	err := row.Scan(
		&o.ID, &o.Currency, &o.SubtotalAmount, &o.ShippingAmount, &o.ServiceFeeAmount,
		&status, &state, &o.FailureReason, &o.ReceiptURL,
		&items, &transfers, &fees, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get order %q: %w", id, err)
	}

	o.Status = order.Status(status)
	o.SettlementState = order.SettlementState(state)

	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, fmt.Errorf("sqlite: decode items for order %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(transfers), &o.Transfers); err != nil {
		return nil, fmt.Errorf("sqlite: decode transfers for order %q: %w", id, err)
	}
	if fees != "" {
		o.Fees = &order.FeeBreakdown{}
		if err := json.Unmarshal([]byte(fees), o.Fees); err != nil {
			return nil, fmt.Errorf("sqlite: decode fees for order %q: %w", id, err)
		}
	}

	if o.CreatedAt, err = parseRFC3339(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseRFC3339(updatedAt); err != nil {
		return nil, err
	}

	return &o, nil
}

// MarkFailed transitions a pending order to failed. The status guard in the
// WHERE clause enforces that terminal statuses are never overwritten.
func (r *Repository) MarkFailed(ctx context.Context, id, reason string) error {
	const q = `
		UPDATE orders
		SET    status = ?, failure_reason = ?, updated_at = ?
		WHERE  id = ? AND status = ?`

	res, err := r.db.ExecContext(ctx, q,
		string(order.StatusFailed), reason, formatTime(time.Now().UTC()),
		id, string(order.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("sqlite: mark order %q failed: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return order.ErrStatusFinal
	}
	return nil
}

// SaveSettlementState persists only the settlement state column.
func (r *Repository) SaveSettlementState(ctx context.Context, id string, state order.SettlementState) error {
	const q = `UPDATE orders SET settlement_state = ?, updated_at = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, q, string(state), formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("sqlite: save settlement state for order %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return order.ErrNotFound
	}
	return nil
}

// SaveSettlement persists the settlement outcome in one write: status,
// settlement state, fee breakdown, the merged transfer list and receipt URL.
func (r *Repository) SaveSettlement(ctx context.Context, o *order.Order) error {
	transfers, err := json.Marshal(o.Transfers)
	if err != nil {
		return fmt.Errorf("sqlite: marshal transfers for order %q: %w", o.ID, err)
	}
	if o.Transfers == nil {
		transfers = []byte("[]")
	}
	fees := sql.NullString{}
	if o.Fees != nil {
		b, err := json.Marshal(o.Fees)
		if err != nil {
			return fmt.Errorf("sqlite: marshal fees for order %q: %w", o.ID, err)
		}
		fees = sql.NullString{String: string(b), Valid: true}
	}

	o.UpdatedAt = time.Now().UTC()

	const q = `
		UPDATE orders
		SET    status = ?, settlement_state = ?, transfers = ?, fees = ?,
		       receipt_url = ?, updated_at = ?
		WHERE  id = ?`

	res, err := r.db.ExecContext(ctx, q,
		string(o.Status), string(o.SettlementState), string(transfers), fees,
		o.ReceiptURL, formatTime(o.UpdatedAt), o.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: save settlement for order %q: %w", o.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return order.ErrNotFound
	}
	return nil
}

// formatTime stores timestamps as RFC3339 TEXT, the SQLite idiom.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.999999999Z")
}

// parseRFC3339 parses the timestamp strings stored in SQLite.
func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}
