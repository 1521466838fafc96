package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// signatureTolerance bounds how old (or future-dated) a signed timestamp
// may be. Outside the window the payload is rejected even with a valid MAC,
// which limits replay of captured deliveries.
const signatureTolerance = 5 * time.Minute

var (
	ErrMalformedSignature = errors.New("webhook: malformed signature header")
	ErrInvalidSignature   = errors.New("webhook: signature verification failed")
	ErrStaleTimestamp     = errors.New("webhook: signed timestamp outside tolerance")
)

// VerifySignature checks the provider's webhook signature header against
// the raw request body. The header format is "t=<unix>,v1=<hex>", where v1
// is HMAC-SHA256 over "<unix>.<body>" keyed with the endpoint's signing
// secret. Multiple v1 entries may be present during secret rotation; any
// matching one passes.
func VerifySignature(payload []byte, header, secret string, now time.Time) error {
	var timestamp int64 = -1
	var candidates []string

	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return ErrMalformedSignature
		}
		switch k {
		case "t":
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrMalformedSignature
			}
			timestamp = ts
		case "v1":
			candidates = append(candidates, v)
		}
	}
	if timestamp < 0 || len(candidates) == 0 {
		return ErrMalformedSignature
	}

	age := now.Sub(time.Unix(timestamp, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return ErrStaleTimestamp
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		decoded, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// SignPayload produces a signature header for the given body and timestamp.
// Exported for tests and for the local event simulator.
func SignPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}
