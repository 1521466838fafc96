package webhook

// Event is the provider's webhook envelope, decoded from the raw body only
// after the signature has been verified.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object ChargeObject `json:"object"`
	} `json:"data"`
}

// Event types this service acts on. Anything else is acknowledged and
// ignored.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// ChargeObject is the charge carried inside a payment event.
type ChargeObject struct {
	ID             string            `json:"id"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	ReceiptURL     string            `json:"receipt_url"`
	FailureMessage string            `json:"failure_message"`
	Metadata       map[string]string `json:"metadata"`
}

// metadataOrderID is the metadata key checkout stamps onto every charge so
// webhook events can be joined back to the order.
const metadataOrderID = "order_id"

type eventAck struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
}

// OrderResponse is the operator-facing settlement status of one order.
type OrderResponse struct {
	ID              string             `json:"id"`
	Status          string             `json:"status"`
	SettlementState string             `json:"settlement_state"`
	Currency        string             `json:"currency"`
	SubtotalAmount  float64            `json:"subtotal_amount"`
	ShippingAmount  float64            `json:"shipping_amount"`
	FailureReason   string             `json:"failure_reason,omitempty"`
	ReceiptURL      string             `json:"receipt_url,omitempty"`
	Fees            *FeesResponse      `json:"fees,omitempty"`
	Transfers       []TransferResponse `json:"transfers"`
	CreatedAt       string             `json:"created_at"`
	UpdatedAt       string             `json:"updated_at"`
}

type FeesResponse struct {
	ProcessorFeeOre int64 `json:"processor_fee_ore"`
	SubtotalFeeOre  int64 `json:"subtotal_fee_ore"`
	ShippingFeeOre  int64 `json:"shipping_fee_ore"`
}

type TransferResponse struct {
	SellerID    string  `json:"seller_id"`
	Destination string  `json:"destination"`
	Amount      float64 `json:"amount"`
	AmountOre   int64   `json:"amount_ore"`
	TransferID  string  `json:"transfer_id"`
	Failed      bool    `json:"failed"`
	CreatedAt   string  `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
