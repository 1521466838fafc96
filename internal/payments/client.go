package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Ensure Client implements the port at compile time.
var _ Provider = (*Client)(nil)

// Client is the HTTPS implementation of Provider. The provider speaks a
// form-encoded REST API authenticated with a secret key; responses are JSON.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a provider client for the given API base URL and secret
// key. Outbound calls are traced via the otelhttp transport.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// chargeResponse is the subset of the charge object we read. The balance
// transaction is expanded inline so one request yields the fee.
type chargeResponse struct {
	ID                 string `json:"id"`
	BalanceTransaction struct {
		Fee int64 `json:"fee"`
	} `json:"balance_transaction"`
}

// ChargeFee retrieves the charge with its balance transaction expanded and
// returns the processor's total fee in minor units.
func (c *Client) ChargeFee(ctx context.Context, chargeID string) (int64, error) {
	endpoint := fmt.Sprintf("%s/v1/charges/%s?expand[]=balance_transaction", c.baseURL, url.PathEscape(chargeID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("payments: build charge request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var charge chargeResponse
	if err := c.do(req, &charge); err != nil {
		return 0, fmt.Errorf("payments: retrieve charge %s: %w", chargeID, err)
	}
	return charge.BalanceTransaction.Fee, nil
}

// CreateTransfer issues one payout transfer. The idempotency key travels in
// the standard Idempotency-Key header so redelivered webhooks cannot
// double-pay a seller.
func (c *Client) CreateTransfer(ctx context.Context, treq TransferRequest) (*Transfer, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(treq.AmountOre, 10))
	form.Set("currency", treq.Currency)
	form.Set("destination", treq.Destination)
	form.Set("transfer_group", treq.TransferGroup)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transfers", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("payments: build transfer request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", treq.IdempotencyKey)

	var transfer Transfer
	if err := c.do(req, &transfer); err != nil {
		return nil, fmt.Errorf("payments: create transfer to %s: %w", treq.Destination, err)
	}
	return &transfer, nil
}

// errorEnvelope is the provider's error response body.
type errorEnvelope struct {
	Error APIError `json:"error"`
}

// do executes the request and decodes the JSON response into out.
// Non-2xx responses are returned as *APIError.
func (c *Client) do(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var envelope errorEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Code == "" {
			return &APIError{Status: res.StatusCode, Code: "api_error", Message: strings.TrimSpace(string(body))}
		}
		envelope.Error.Status = res.StatusCode
		return &envelope.Error
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
