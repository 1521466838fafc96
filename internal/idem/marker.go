// Package idem guards against duplicate webhook deliveries. The payment
// provider may redeliver the same event; a processed-event marker created
// atomically at the start of handling makes every redelivery a no-op.
package idem

import (
	"context"
	"time"
)

// Marker records that a provider webhook event has been handled (or
// attempted). At most one marker exists per event ID; markers are never
// deleted, only annotated with an error when handling fails.
type Marker struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	ProcessedAt time.Time `json:"processed_at"`
	Error       string    `json:"error,omitempty"`
}

// Store is the port for marker persistence.
type Store interface {
	// Create persists the marker if and only if no marker exists for its
	// event ID, atomically. It returns false when a marker was already
	// present — the caller must then skip all processing for the event.
	Create(ctx context.Context, m Marker) (bool, error)

	// AttachError annotates an existing marker with a failure message so
	// unresolved settlements are visible to operators. The marker itself
	// stays in place; the event is still considered handled.
	AttachError(ctx context.Context, eventID, msg string) error
}
