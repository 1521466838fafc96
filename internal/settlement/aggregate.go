package settlement

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dealfynd/settlement/internal/order"
)

// SellerPayout is the ephemeral per-seller aggregate computed for one
// settlement run. It is discarded after transfers are issued; only the
// resulting transfer records are persisted.
type SellerPayout struct {
	SellerID    string
	Destination string
	AmountOre   int64
}

// AggregateSellers groups line items by seller and computes each seller's
// net payable amount in öre: gross minus platform fee minus the processor
// fee allocated to the item, clamped at zero so fees exceeding the gross
// never produce a negative transfer request.
//
// allocated must be parallel to items (one processor-fee share per item, in
// öre), as produced by Allocate over the items' gross-amount weights.
//
// One payout destination is kept per seller. If a seller's line items carry
// inconsistent destinations the last-seen one wins; the conflict is logged
// because the provider can only pay one account per transfer.
func AggregateSellers(ctx context.Context, items []order.LineItem, allocated []int64, fees FeeTable) map[string]*SellerPayout {
	payouts := make(map[string]*SellerPayout, len(items))

	for i, it := range items {
		grossOre := ToOre(it.GrossAmount)
		platformOre := ToOre(it.PlatformFeeAmount)
		if platformOre == 0 && it.PlatformFeeAmount == 0 {
			if pct, ok := fees.Percent(it.DealDurationHours); ok && pct > 0 {
				platformOre = percentOf(grossOre, pct)
			}
		}

		var processorOre int64
		if i < len(allocated) {
			processorOre = allocated[i]
		}

		payoutOre := grossOre - platformOre - processorOre
		if payoutOre < 0 {
			payoutOre = 0
		}

		p, ok := payouts[it.SellerID]
		if !ok {
			p = &SellerPayout{SellerID: it.SellerID}
			payouts[it.SellerID] = p
		}
		if p.Destination != "" && it.Destination != "" && p.Destination != it.Destination {
			slog.WarnContext(ctx, "seller has conflicting payout destinations, last one wins",
				"seller_id", it.SellerID,
				"previous_destination", p.Destination,
				"destination", it.Destination,
			)
		}
		if it.Destination != "" {
			p.Destination = it.Destination
		}
		p.AmountOre += payoutOre
	}

	return payouts
}

var hundred = decimal.NewFromInt(100)

// ToOre converts a major-unit amount (kronor) to integer öre, rounding to
// the nearest öre. Decimal arithmetic avoids the float drift that
// round(x*100) accumulates on amounts like 276.43.
func ToOre(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(hundred).Round(0).IntPart()
}

// percentOf computes pct% of an öre amount, rounded to the nearest öre.
func percentOf(amountOre int64, pct float64) int64 {
	return decimal.NewFromInt(amountOre).Mul(decimal.NewFromFloat(pct)).Div(hundred).Round(0).IntPart()
}
