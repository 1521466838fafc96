// Package payments talks to the external payment processor: it retrieves
// the processor's transaction fee for a completed charge and issues payout
// transfers to seller accounts.
package payments

import (
	"context"
	"errors"
	"fmt"
)

// Transfer is a payout issued to a seller's account at the provider.
type Transfer struct {
	ID          string `json:"id"`
	AmountOre   int64  `json:"amount"`
	Currency    string `json:"currency"`
	Destination string `json:"destination"`
}

// TransferRequest describes one payout to issue.
type TransferRequest struct {
	// AmountOre is the payout amount in minor currency units.
	AmountOre int64

	Currency    string
	Destination string

	// TransferGroup correlates the transfer back to the order it settles.
	TransferGroup string

	// IdempotencyKey lets the provider collapse duplicate requests for the
	// same logical payout across webhook redeliveries.
	IdempotencyKey string
}

// Provider is the port to the external payment processor.
type Provider interface {
	// ChargeFee returns the processor's total transaction fee for the given
	// charge, in minor currency units. The fee is authoritative and
	// immutable once read.
	ChargeFee(ctx context.Context, chargeID string) (int64, error)

	// CreateTransfer issues one payout transfer.
	CreateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error)
}

// APIError is a structured error returned by the provider API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payments: api error %s (http %d): %s", e.Code, e.Status, e.Message)
}

// ErrorCode extracts a short machine-readable code from a provider error,
// for use in error-sentinel transfer records. Transport-level failures map
// to "network_error".
func ErrorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code != "" {
		return apiErr.Code
	}
	return "network_error"
}
