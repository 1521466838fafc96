package settlement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealfynd/settlement/internal/order"
)

func TestToOre(t *testing.T) {
	assert.Equal(t, int64(27643), ToOre(276.43))
	assert.Equal(t, int64(100000), ToOre(1000.00))
	assert.Equal(t, int64(0), ToOre(0))
	assert.Equal(t, int64(10), ToOre(0.095)) // rounds to nearest öre
}

func TestAggregateSellersNetPayout(t *testing.T) {
	items := []order.LineItem{
		{SellerID: "seller_a", Destination: "acct_a", GrossAmount: 700.00, PlatformFeeAmount: 35.00},
		{SellerID: "seller_b", Destination: "acct_b", GrossAmount: 300.00, PlatformFeeAmount: 15.00},
	}

	payouts := AggregateSellers(context.Background(), items, []int64{2000, 857}, nil)
	require.Len(t, payouts, 2)

	assert.Equal(t, int64(64500), payouts["seller_a"].AmountOre)
	assert.Equal(t, "acct_a", payouts["seller_a"].Destination)
	assert.Equal(t, int64(27643), payouts["seller_b"].AmountOre)
}

func TestAggregateSellersClampsAtZero(t *testing.T) {
	items := []order.LineItem{
		// Platform fee plus allocated processor fee exceed the gross.
		{SellerID: "seller_a", Destination: "acct_a", GrossAmount: 10.00, PlatformFeeAmount: 9.50},
	}

	payouts := AggregateSellers(context.Background(), items, []int64{100}, nil)
	require.Contains(t, payouts, "seller_a")
	assert.Equal(t, int64(0), payouts["seller_a"].AmountOre)
}

func TestAggregateSellersGroupsBySeller(t *testing.T) {
	items := []order.LineItem{
		{SellerID: "seller_a", Destination: "acct_a", GrossAmount: 100.00, PlatformFeeAmount: 5.00},
		{SellerID: "seller_b", Destination: "acct_b", GrossAmount: 50.00, PlatformFeeAmount: 2.50},
		{SellerID: "seller_a", Destination: "acct_a", GrossAmount: 200.00, PlatformFeeAmount: 10.00},
	}

	payouts := AggregateSellers(context.Background(), items, []int64{0, 0, 0}, nil)
	require.Len(t, payouts, 2)

	// 9500 + 19000 öre net across seller A's two items.
	assert.Equal(t, int64(28500), payouts["seller_a"].AmountOre)
	assert.Equal(t, int64(4750), payouts["seller_b"].AmountOre)
}

func TestAggregateSellersFeeTableFallback(t *testing.T) {
	fees := FeeTable{24: 10.0}
	items := []order.LineItem{
		// No fee amount stamped by checkout; the 24h deal rate applies.
		{SellerID: "seller_a", Destination: "acct_a", GrossAmount: 100.00, DealDurationHours: 24},
		// An explicit fee amount always wins over the table.
		{SellerID: "seller_b", Destination: "acct_b", GrossAmount: 100.00, DealDurationHours: 24, PlatformFeeAmount: 1.00},
	}

	payouts := AggregateSellers(context.Background(), items, []int64{0, 0}, fees)

	assert.Equal(t, int64(9000), payouts["seller_a"].AmountOre)
	assert.Equal(t, int64(9900), payouts["seller_b"].AmountOre)
}

func TestAggregateSellersLastDestinationWins(t *testing.T) {
	items := []order.LineItem{
		{SellerID: "seller_a", Destination: "acct_old", GrossAmount: 100.00},
		{SellerID: "seller_a", Destination: "acct_new", GrossAmount: 100.00},
	}

	payouts := AggregateSellers(context.Background(), items, []int64{0, 0}, nil)
	assert.Equal(t, "acct_new", payouts["seller_a"].Destination)
}
