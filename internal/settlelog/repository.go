package settlelog

import "context"

// Repository is the port (interface) for persisting settlement log entries.
// The settler depends on this abstraction, not on SQLite directly, so the
// implementation can be swapped for in-memory (tests) or Postgres.
type Repository interface {
	// Save persists a new log entry. Each call appends a row; the table is
	// an append-only audit log, not an upsert.
	Save(ctx context.Context, entry *Entry) error
}
