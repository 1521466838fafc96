package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChargeFee(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/charges/ch_1", r.URL.Path)
		assert.Equal(t, "balance_transaction", r.URL.Query().Get("expand[]"))
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":                  "ch_1",
			"balance_transaction": map[string]any{"fee": 3000},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_123")
	fee, err := client.ChargeFee(context.Background(), "ch_1")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), fee)
}

func TestCreateTransfer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/transfers", r.URL.Path)
		assert.Equal(t, "settle:ord_1:seller_a", r.Header.Get("Idempotency-Key"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "64500", r.PostForm.Get("amount"))
		assert.Equal(t, "sek", r.PostForm.Get("currency"))
		assert.Equal(t, "acct_a", r.PostForm.Get("destination"))
		assert.Equal(t, "ord_1", r.PostForm.Get("transfer_group"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "tr_1",
			"amount":      64500,
			"currency":    "sek",
			"destination": "acct_a",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_123")
	transfer, err := client.CreateTransfer(context.Background(), TransferRequest{
		AmountOre:      64500,
		Currency:       "sek",
		Destination:    "acct_a",
		TransferGroup:  "ord_1",
		IdempotencyKey: "settle:ord_1:seller_a",
	})
	require.NoError(t, err)
	assert.Equal(t, "tr_1", transfer.ID)
	assert.Equal(t, int64(64500), transfer.AmountOre)
}

func TestCreateTransferAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": "invalid_destination", "message": "no such account"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_123")
	_, err := client.CreateTransfer(context.Background(), TransferRequest{
		AmountOre:   100,
		Currency:    "sek",
		Destination: "acct_bogus",
	})
	require.Error(t, err)
	assert.Equal(t, "invalid_destination", ErrorCode(err))
}

func TestErrorCodeFallsBackForTransportErrors(t *testing.T) {
	assert.Equal(t, "network_error", ErrorCode(assert.AnError))
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_123")
	_, err := client.ChargeFee(context.Background(), "ch_1")
	require.Error(t, err)
	assert.Equal(t, "api_error", ErrorCode(err))
}
