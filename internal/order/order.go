// Package order defines the domain types for marketplace orders as seen by
// the settlement service.
//
// Amounts on the order and its line items are stored in major currency
// units (kronor) exactly as the checkout wrote them; everything the
// settlement core computes is expressed in integer minor units (öre) to
// keep money math exact. The conversion happens once, at the settlement
// boundary.
package order

import (
	"errors"
	"strings"
	"time"
)

// Status is the payment lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// SettlementState tracks how far transfer issuance has progressed for an
// order. It exists because issuing transfers and recording them are two
// separate writes: an order stuck in SettlementIssuing means transfers may
// have been issued but were never recorded, and needs operator attention.
type SettlementState string

const (
	SettlementNone     SettlementState = "none"
	SettlementIssuing  SettlementState = "issuing"
	SettlementRecorded SettlementState = "recorded"
)

// LineItem is one purchased unit-quantity within an order.
type LineItem struct {
	ProductID string `json:"product_id"`
	SellerID  string `json:"seller_id"`

	// Destination is the seller's payout account at the payment provider.
	Destination string `json:"destination"`

	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`

	// GrossAmount is unit price × quantity, computed by checkout.
	// Settlement treats it as given input and never re-derives it.
	GrossAmount float64 `json:"gross_amount"`

	// DealDurationHours is the length of the time-limited deal the item was
	// bought under. It selects the platform fee percentage when the checkout
	// did not stamp a fee amount onto the item.
	DealDurationHours int `json:"deal_duration_hours"`

	PlatformFeePercent float64 `json:"platform_fee_percent"`
	PlatformFeeAmount  float64 `json:"platform_fee_amount"`
}

// failedIDPrefix marks transfer records whose payout attempt was rejected;
// the rest of the ID carries the provider error code.
const failedIDPrefix = "failed:"

// TransferRecord is the audit entry for one payout attempt to one seller.
// Records are append-only: once written they are never mutated.
type TransferRecord struct {
	SellerID    string    `json:"seller_id"`
	Destination string    `json:"destination"`
	AmountOre   int64     `json:"amount_ore"`
	TransferID  string    `json:"transfer_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Failed reports whether this record represents a rejected payout attempt.
func (t TransferRecord) Failed() bool {
	return t.TransferID == "" || strings.HasPrefix(t.TransferID, failedIDPrefix)
}

// FailedTransferID builds the error-sentinel transfer ID for a rejected
// payout, carrying the provider error code.
func FailedTransferID(code string) string {
	if code == "" {
		code = "error"
	}
	return failedIDPrefix + code
}

// FeeBreakdown records how the processor's transaction fee was split
// between the subtotal and shipping portions of the order.
type FeeBreakdown struct {
	ProcessorFeeOre int64 `json:"processor_fee_ore"`
	SubtotalFeeOre  int64 `json:"subtotal_fee_ore"`
	ShippingFeeOre  int64 `json:"shipping_fee_ore"`
}

// Order represents one checkout attempt. Once Status reaches a terminal
// value the line items and amounts are immutable; only transfer and audit
// fields may be appended.
type Order struct {
	ID    string     `json:"id"`
	Items []LineItem `json:"items"`

	SubtotalAmount   float64 `json:"subtotal_amount"`
	ShippingAmount   float64 `json:"shipping_amount"`
	ServiceFeeAmount float64 `json:"service_fee_amount"`
	Currency         string  `json:"currency"`

	Status          Status          `json:"status"`
	SettlementState SettlementState `json:"settlement_state"`
	FailureReason   string          `json:"failure_reason,omitempty"`

	Transfers  []TransferRecord `json:"transfers"`
	Fees       *FeeBreakdown    `json:"fees,omitempty"`
	ReceiptURL string           `json:"receipt_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	// ErrNotFound is returned when no order exists for the given ID.
	ErrNotFound = errors.New("order: not found")

	// ErrStatusFinal is returned when a status transition is requested on an
	// order that already reached a terminal status.
	ErrStatusFinal = errors.New("order: status already final")
)
