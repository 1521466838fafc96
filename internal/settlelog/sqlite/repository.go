// Package sqlite provides a SQLite-backed implementation of
// settlelog.Repository.
//
// WAL mode is enabled on Open so that readers never block writers and vice
// versa — the settler writes while the status endpoint may be reading.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dealfynd/settlement/internal/settlelog"

	// Register the pure-Go SQLite driver.
	// modernc.org/sqlite avoids CGO, so Alpine/Docker builds stay simple.
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup.
// The table is append-only: each row is an immutable event in the
// settlement's lifecycle. Querying MAX(created_at) per order_id gives the
// current state.
const schema = `
CREATE TABLE IF NOT EXISTS settlement_logs (
    -- Surrogate primary key, auto-incremented by SQLite.
    id          INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Business identifier: the order being settled.
    -- Not UNIQUE because multiple rows exist per run (one per phase).
    order_id    TEXT NOT NULL,

    -- Lifecycle phase reached when this row was written.
    phase       TEXT NOT NULL,

    -- Phase-specific context (fee amount, transfer count, error message).
    detail      TEXT NOT NULL DEFAULT '',

    -- W3C trace_id / span_id from the active OTel span, for jumping from a
    -- log row straight to the distributed trace.
    trace_id    TEXT NOT NULL DEFAULT '',
    span_id     TEXT NOT NULL DEFAULT '',

    -- Wall-clock timestamp (RFC3339 stored as TEXT, SQLite idiom).
    created_at  TEXT NOT NULL
);

-- Index for the most common query: "all phases for order X, in order".
CREATE INDEX IF NOT EXISTS idx_settlement_logs_order_id ON settlement_logs(order_id, created_at);

-- Index for the observability query: "find the settlement for trace Y".
CREATE INDEX IF NOT EXISTS idx_settlement_logs_trace_id ON settlement_logs(trace_id);
`

// Repository is the SQLite implementation of settlelog.Repository.
type Repository struct {
	db *sql.DB
}

var _ settlelog.Repository = (*Repository)(nil)

// Open opens (or creates) the SQLite database at the given path and applies
// the schema. WAL mode is enabled for concurrent read/write performance.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	// Use "sqlite", not "sqlite3", for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply settlement log schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (r *Repository) Close() error {
	return r.db.Close()
}

// Save inserts a new settlement log entry. Safe to call concurrently.
func (r *Repository) Save(ctx context.Context, entry *settlelog.Entry) error {
	const q = `
		INSERT INTO settlement_logs
			(order_id, phase, detail, trace_id, span_id, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.OrderID,
		string(entry.Phase),
		entry.Detail,
		entry.TraceID,
		entry.SpanID,
		entry.CreatedAt.UTC().Format("2006-01-02T15:04:05.999999999Z"),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save settlement log for %q: %w", entry.OrderID, err)
	}
	return nil
}

// GetLatest returns the most recent log entry for a given order ID.
// Useful for the status endpoint and for reconciliation after a crash.
func (r *Repository) GetLatest(ctx context.Context, orderID string) (*settlelog.Entry, error) {
	const q = `
		SELECT order_id, phase, detail, trace_id, span_id, created_at
		FROM   settlement_logs
		WHERE  order_id = ?
		ORDER  BY created_at DESC, id DESC
		LIMIT  1`

	row := r.db.QueryRowContext(ctx, q, orderID)

	var entry settlelog.Entry
	var createdAt string
	err := row.Scan(
		&entry.OrderID,
		&entry.Phase,
		&entry.Detail,
		&entry.TraceID,
		&entry.SpanID,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sqlite: settlement log for %q not found", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get latest for %q: %w", orderID, err)
	}

	entry.CreatedAt, err = parseRFC3339(createdAt)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}
