package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealfynd/settlement/internal/order"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sampleOrder(id string) *order.Order {
	return &order.Order{
		ID:       id,
		Currency: "sek",
		Items: []order.LineItem{
			{ProductID: "p1", SellerID: "seller_a", Destination: "acct_a", Quantity: 2, UnitPrice: 100.00, GrossAmount: 200.00, DealDurationHours: 24, PlatformFeeAmount: 10.00},
		},
		SubtotalAmount:  200.00,
		ShippingAmount:  50.00,
		Status:          order.StatusPending,
		SettlementState: order.SettlementNone,
	}
}

func TestCreateAndGetRoundtrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleOrder("ord_1")))

	got, err := repo.Get(ctx, "ord_1")
	require.NoError(t, err)
	assert.Equal(t, "ord_1", got.ID)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Equal(t, order.SettlementNone, got.SettlementState)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "seller_a", got.Items[0].SellerID)
	assert.Equal(t, 200.00, got.Items[0].GrossAmount)
	assert.Empty(t, got.Transfers)
	assert.Nil(t, got.Fees)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetUnknownOrder(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.Get(context.Background(), "ord_missing")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestMarkFailed(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, sampleOrder("ord_1")))

	require.NoError(t, repo.MarkFailed(ctx, "ord_1", "card declined"))

	got, err := repo.Get(ctx, "ord_1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusFailed, got.Status)
	assert.Equal(t, "card declined", got.FailureReason)

	// Terminal statuses never transition again.
	assert.ErrorIs(t, repo.MarkFailed(ctx, "ord_1", "again"), order.ErrStatusFinal)

	assert.ErrorIs(t, repo.MarkFailed(ctx, "ord_missing", "x"), order.ErrNotFound)
}

func TestSaveSettlementState(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, sampleOrder("ord_1")))

	require.NoError(t, repo.SaveSettlementState(ctx, "ord_1", order.SettlementIssuing))

	got, err := repo.Get(ctx, "ord_1")
	require.NoError(t, err)
	assert.Equal(t, order.SettlementIssuing, got.SettlementState)

	assert.ErrorIs(t, repo.SaveSettlementState(ctx, "ord_missing", order.SettlementIssuing), order.ErrNotFound)
}

func TestSaveSettlementRoundtrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, sampleOrder("ord_1")))

	o, err := repo.Get(ctx, "ord_1")
	require.NoError(t, err)

	o.Status = order.StatusSucceeded
	o.SettlementState = order.SettlementRecorded
	o.ReceiptURL = "https://receipts.example/ord_1"
	o.Fees = &order.FeeBreakdown{ProcessorFeeOre: 3000, SubtotalFeeOre: 2857, ShippingFeeOre: 143}
	o.Transfers = []order.TransferRecord{
		{SellerID: "seller_a", Destination: "acct_a", AmountOre: 17000, TransferID: "tr_1", CreatedAt: time.Now().UTC()},
		{SellerID: "seller_b", Destination: "acct_b", AmountOre: 900, TransferID: order.FailedTransferID("invalid_destination"), CreatedAt: time.Now().UTC()},
	}

	require.NoError(t, repo.SaveSettlement(ctx, o))

	got, err := repo.Get(ctx, "ord_1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusSucceeded, got.Status)
	assert.Equal(t, order.SettlementRecorded, got.SettlementState)
	assert.Equal(t, "https://receipts.example/ord_1", got.ReceiptURL)
	require.NotNil(t, got.Fees)
	assert.Equal(t, int64(3000), got.Fees.ProcessorFeeOre)
	require.Len(t, got.Transfers, 2)
	assert.False(t, got.Transfers[0].Failed())
	assert.True(t, got.Transfers[1].Failed())
}
