// Command simulate seeds a demo order into the local order store and prints
// a signed payment.succeeded webhook payload for it, ready to curl at a
// locally running webhookd. Development tooling only.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	ordersqlite "github.com/dealfynd/settlement/internal/order/sqlite"

	"github.com/dealfynd/settlement/internal/order"
	"github.com/dealfynd/settlement/internal/webhook"
)

func main() {
	sqlitePath := getEnv("SQLITE_PATH", "./data/settlement.db")
	secret := getEnv("WEBHOOK_SIGNING_SECRET", "whsec_local_dev")

	orders, err := ordersqlite.Open(sqlitePath)
	if err != nil {
		slog.Error("failed to open order store", "path", sqlitePath, "error", err)
		os.Exit(1)
	}
	defer orders.Close()

	orderID := uuid.NewString()
	demo := &order.Order{
		ID:       orderID,
		Currency: "sek",
		Items: []order.LineItem{
			{
				ProductID:         uuid.NewString(),
				SellerID:          "seller_a",
				Destination:       "acct_seller_a",
				Quantity:          1,
				UnitPrice:         700.00,
				GrossAmount:       700.00,
				DealDurationHours: 24,
				PlatformFeeAmount: 35.00,
			},
			{
				ProductID:         uuid.NewString(),
				SellerID:          "seller_b",
				Destination:       "acct_seller_b",
				Quantity:          1,
				UnitPrice:         300.00,
				GrossAmount:       300.00,
				DealDurationHours: 24,
				PlatformFeeAmount: 15.00,
			},
		},
		SubtotalAmount:  1000.00,
		ShippingAmount:  50.00,
		Status:          order.StatusPending,
		SettlementState: order.SettlementNone,
	}

	if err := orders.Create(context.Background(), demo); err != nil {
		slog.Error("failed to seed demo order", "order_id", orderID, "error", err)
		os.Exit(1)
	}

	event := webhook.Event{
		ID:   "evt_" + uuid.NewString(),
		Type: webhook.EventPaymentSucceeded,
	}
	event.Data.Object = webhook.ChargeObject{
		ID:       "ch_" + uuid.NewString(),
		Amount:   105000,
		Currency: "sek",
		Metadata: map[string]string{"order_id": orderID},
	}

	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to encode event", "error", err)
		os.Exit(1)
	}

	signature := webhook.SignPayload(payload, secret, time.Now())

	fmt.Printf("order seeded: %s\n\n", orderID)
	fmt.Printf("curl -s -X POST localhost:8080/webhooks/payments \\\n")
	fmt.Printf("  -H 'Dealfynd-Signature: %s' \\\n", signature)
	fmt.Printf("  -d '%s'\n", payload)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
