package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment.succeeded"}`)
	secret := "whsec_test"
	now := time.Unix(1700000000, 0)

	t.Run("valid signature passes", func(t *testing.T) {
		header := SignPayload(payload, secret, now)
		assert.NoError(t, VerifySignature(payload, header, secret, now))
	})

	t.Run("wrong secret fails", func(t *testing.T) {
		header := SignPayload(payload, "whsec_other", now)
		assert.ErrorIs(t, VerifySignature(payload, header, secret, now), ErrInvalidSignature)
	})

	t.Run("tampered payload fails", func(t *testing.T) {
		header := SignPayload(payload, secret, now)
		tampered := []byte(`{"id":"evt_1","type":"payment.failed"}`)
		assert.ErrorIs(t, VerifySignature(tampered, header, secret, now), ErrInvalidSignature)
	})

	t.Run("stale timestamp fails", func(t *testing.T) {
		header := SignPayload(payload, secret, now.Add(-10*time.Minute))
		assert.ErrorIs(t, VerifySignature(payload, header, secret, now), ErrStaleTimestamp)
	})

	t.Run("future timestamp fails", func(t *testing.T) {
		header := SignPayload(payload, secret, now.Add(10*time.Minute))
		assert.ErrorIs(t, VerifySignature(payload, header, secret, now), ErrStaleTimestamp)
	})

	t.Run("within tolerance passes", func(t *testing.T) {
		header := SignPayload(payload, secret, now.Add(-2*time.Minute))
		assert.NoError(t, VerifySignature(payload, header, secret, now))
	})

	t.Run("rotated secrets: any matching v1 passes", func(t *testing.T) {
		header := SignPayload(payload, "whsec_retired", now) + "," + SignPayload(payload, secret, now)[len("t=1700000000,"):]
		assert.NoError(t, VerifySignature(payload, header, secret, now))
	})

	malformed := []string{
		"",
		"t=abc,v1=00",
		"v1=00",
		"t=1700000000",
		"nonsense",
	}
	for _, header := range malformed {
		t.Run("malformed header "+header, func(t *testing.T) {
			assert.ErrorIs(t, VerifySignature(payload, header, secret, now), ErrMalformedSignature)
		})
	}
}
