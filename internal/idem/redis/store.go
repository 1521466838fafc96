// Package redis implements idem.Store on Redis. SET NX gives the atomic
// create-if-absent the marker contract requires: when two deliveries of the
// same event race, exactly one SET NX wins and the other delivery
// short-circuits. There is no separate read-then-write window.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dealfynd/settlement/internal/idem"
)

var _ idem.Store = (*Store)(nil)

// Store persists processed-event markers as JSON values keyed by event ID.
// Markers carry no TTL — they are never deleted.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

// NewStore connects to Redis at addr. The service name prefixes every key
// so multiple services can share one Redis instance.
func NewStore(addr, serviceName string) *Store {
	return &Store{
		client:    redis.NewClient(&redis.Options{Addr: addr}),
		keyPrefix: serviceName + ":event:",
	}
}

func (s *Store) key(eventID string) string {
	return s.keyPrefix + eventID
}

// Create writes the marker with SET NX and reports whether this call was
// the one that created it.
func (s *Store) Create(ctx context.Context, m idem.Marker) (bool, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return false, fmt.Errorf("idem: marshal marker for %q: %w", m.EventID, err)
	}

	created, err := s.client.SetNX(ctx, s.key(m.EventID), payload, 0).Result()
	if err != nil {
		return false, fmt.Errorf("idem: create marker for %q: %w", m.EventID, err)
	}
	return created, nil
}

// AttachError reads the marker back, sets its error field, and rewrites it.
// The marker is only ever annotated by the delivery that created it, so the
// read-modify-write here does not race with other deliveries.
func (s *Store) AttachError(ctx context.Context, eventID, msg string) error {
	raw, err := s.client.Get(ctx, s.key(eventID)).Result()
	if err == redis.Nil {
		return fmt.Errorf("idem: no marker for %q", eventID)
	}
	if err != nil {
		return fmt.Errorf("idem: read marker for %q: %w", eventID, err)
	}

	var m idem.Marker
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return fmt.Errorf("idem: decode marker for %q: %w", eventID, err)
	}
	m.Error = msg

	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("idem: marshal marker for %q: %w", eventID, err)
	}
	if err := s.client.Set(ctx, s.key(eventID), payload, 0).Err(); err != nil {
		return fmt.Errorf("idem: update marker for %q: %w", eventID, err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
