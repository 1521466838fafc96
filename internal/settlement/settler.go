// Package settlement implements the split-payment settlement core: given a
// paid order, it retrieves the processor's transaction fee, allocates it
// across the order's line items, computes each seller's net payable, issues
// one transfer per seller, and merges the resulting audit records into the
// order.
package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dealfynd/settlement/internal/order"
	"github.com/dealfynd/settlement/internal/payments"
	"github.com/dealfynd/settlement/internal/settlelog"
)

// Settler runs the settlement pipeline for one order at a time. All work is
// strictly sequential: each phase completes before the next begins, and
// transfers are issued one seller at a time. The order in which sellers are
// paid is not contractual.
type Settler struct {
	orders   order.Repository
	provider payments.Provider
	audit    settlelog.Repository // nil-safe: phase logging skipped if nil
	fees     FeeTable
}

// NewSettler wires the settlement pipeline. audit may be nil — in that case
// phase transitions are not persisted to the settlement log.
func NewSettler(orders order.Repository, provider payments.Provider, audit settlelog.Repository, fees FeeTable) *Settler {
	return &Settler{
		orders:   orders,
		provider: provider,
		audit:    audit,
		fees:     fees,
	}
}

// Settle reconciles one paid order: fee retrieval, proportional allocation,
// per-seller aggregation, transfer issuance, and the final persisted audit
// merge. It transitions the order pending → succeeded.
//
// A single seller's transfer failure never aborts the run — it is recorded
// as an error-sentinel transfer record and the remaining sellers are still
// paid. Only storage failures make Settle return an error.
func (s *Settler) Settle(ctx context.Context, ord *order.Order, chargeID, receiptURL string) error {
	if ord.Status != order.StatusPending {
		return fmt.Errorf("settlement: order %s is %s, not pending", ord.ID, ord.Status)
	}

	s.logPhase(ctx, ord.ID, settlelog.PhaseStarted, "charge_id="+chargeID)

	// Fee retrieval failure is recovered locally: settling with a zero
	// processor fee under-allocates fees but never blocks payouts.
	feeOre, err := s.provider.ChargeFee(ctx, chargeID)
	if err != nil {
		slog.WarnContext(ctx, "processor fee retrieval failed, settling with zero fee",
			"order_id", ord.ID, "charge_id", chargeID, "error", err)
		feeOre = 0
	}
	s.logPhase(ctx, ord.ID, settlelog.PhaseFeeRetrieved, fmt.Sprintf("fee_ore=%d", feeOre))

	// The fee is split twice: first between the subtotal and shipping
	// portions of the order, then across line items by gross-amount weight.
	subtotalOre := ToOre(ord.SubtotalAmount)
	shippingOre := ToOre(ord.ShippingAmount)
	portions := Allocate(feeOre, []int64{subtotalOre, shippingOre})

	weights := make([]int64, len(ord.Items))
	for i, it := range ord.Items {
		weights[i] = ToOre(it.GrossAmount)
	}
	perItem := Allocate(portions[0], weights)

	payouts := AggregateSellers(ctx, ord.Items, perItem, s.fees)

	// Persist the issuing state before any transfer request leaves the
	// process. Transfer issuance and the final record write are two separate
	// writes; an order stuck in "issuing" is the observable partial state.
	if err := s.orders.SaveSettlementState(ctx, ord.ID, order.SettlementIssuing); err != nil {
		s.logPhase(ctx, ord.ID, settlelog.PhaseFailed, err.Error())
		return fmt.Errorf("settlement: mark order %s issuing: %w", ord.ID, err)
	}
	ord.SettlementState = order.SettlementIssuing

	issued := s.issueTransfers(ctx, ord, payouts)
	s.logPhase(ctx, ord.ID, settlelog.PhaseTransfersIssued, fmt.Sprintf("transfers=%d", len(issued)))

	ord.Transfers = mergeTransfers(ord.Transfers, issued)
	ord.Status = order.StatusSucceeded
	ord.SettlementState = order.SettlementRecorded
	ord.Fees = &order.FeeBreakdown{
		ProcessorFeeOre: feeOre,
		SubtotalFeeOre:  portions[0],
		ShippingFeeOre:  portions[1],
	}
	ord.ReceiptURL = receiptURL

	if err := s.orders.SaveSettlement(ctx, ord); err != nil {
		s.logPhase(ctx, ord.ID, settlelog.PhaseFailed, err.Error())
		return fmt.Errorf("settlement: record settlement for order %s: %w", ord.ID, err)
	}
	s.logPhase(ctx, ord.ID, settlelog.PhaseRecorded, "")

	return nil
}

// issueTransfers requests one payout per seller aggregate, sequentially.
// Sellers with no destination or a non-positive amount are skipped with a
// log line; a rejected transfer produces an error-sentinel record instead
// of aborting the loop.
func (s *Settler) issueTransfers(ctx context.Context, ord *order.Order, payouts map[string]*SellerPayout) []order.TransferRecord {
	sellerIDs := make([]string, 0, len(payouts))
	for id := range payouts {
		sellerIDs = append(sellerIDs, id)
	}
	sort.Strings(sellerIDs)

	records := make([]order.TransferRecord, 0, len(sellerIDs))
	for _, sellerID := range sellerIDs {
		p := payouts[sellerID]

		if p.Destination == "" {
			slog.WarnContext(ctx, "skipping payout, seller has no destination",
				"order_id", ord.ID, "seller_id", sellerID, "amount_ore", p.AmountOre)
			continue
		}
		if p.AmountOre <= 0 {
			slog.InfoContext(ctx, "skipping payout, nothing payable",
				"order_id", ord.ID, "seller_id", sellerID)
			continue
		}

		rec := order.TransferRecord{
			SellerID:    sellerID,
			Destination: p.Destination,
			AmountOre:   p.AmountOre,
			CreatedAt:   time.Now().UTC(),
		}

		transfer, err := s.provider.CreateTransfer(ctx, payments.TransferRequest{
			AmountOre:      p.AmountOre,
			Currency:       ord.Currency,
			Destination:    p.Destination,
			TransferGroup:  ord.ID,
			IdempotencyKey: fmt.Sprintf("settle:%s:%s", ord.ID, sellerID),
		})
		if err != nil {
			slog.ErrorContext(ctx, "transfer failed",
				"order_id", ord.ID, "seller_id", sellerID,
				"destination", p.Destination, "amount_ore", p.AmountOre, "error", err)
			rec.TransferID = order.FailedTransferID(payments.ErrorCode(err))
		} else {
			slog.InfoContext(ctx, "transfer issued",
				"order_id", ord.ID, "seller_id", sellerID,
				"transfer_id", transfer.ID, "amount_ore", p.AmountOre)
			rec.TransferID = transfer.ID
		}

		records = append(records, rec)
	}

	return records
}

// mergeTransfers appends newly issued records to the order's existing
// transfer list, deduplicating across webhook redeliveries: successful
// records dedup by transfer ID, failed records by (seller, amount).
//
// The composite fallback means two independent failures of the same seller
// for the same amount collapse into one record. Accepted limitation: it
// keeps redeliveries from growing the list without bound, at the cost of
// losing the attempt count.
func mergeTransfers(existing, issued []order.TransferRecord) []order.TransferRecord {
	seenID := make(map[string]struct{}, len(existing))
	seenFailure := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		if r.Failed() {
			seenFailure[failureKey(r)] = struct{}{}
		} else {
			seenID[r.TransferID] = struct{}{}
		}
	}

	merged := append([]order.TransferRecord(nil), existing...)
	for _, r := range issued {
		if r.Failed() {
			key := failureKey(r)
			if _, dup := seenFailure[key]; dup {
				continue
			}
			seenFailure[key] = struct{}{}
		} else {
			if _, dup := seenID[r.TransferID]; dup {
				continue
			}
			seenID[r.TransferID] = struct{}{}
		}
		merged = append(merged, r)
	}

	return merged
}

func failureKey(r order.TransferRecord) string {
	return fmt.Sprintf("%s:%d", r.SellerID, r.AmountOre)
}

func (s *Settler) logPhase(ctx context.Context, orderID string, phase settlelog.Phase, detail string) {
	if s.audit == nil {
		return
	}
	entry := settlelog.NewEntry(ctx, orderID, phase, detail)
	if err := s.audit.Save(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to save settlement log entry",
			"order_id", orderID, "phase", phase, "error", err)
	}
}
