// Package webhook owns the service's HTTP edge: the payment provider's
// webhook endpoint and the operator-facing settlement status endpoint.
package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dealfynd/settlement/internal/idem"
	"github.com/dealfynd/settlement/internal/order"
	"github.com/dealfynd/settlement/internal/settlement"
)

// maxBodyBytes caps webhook payloads. Provider events are small; anything
// bigger is rejected before signature verification does any work.
const maxBodyBytes = 1 << 16

// Handler handles incoming provider webhooks and dispatches them into the
// settlement core.
type Handler struct {
	orders        order.Repository
	settler       *settlement.Settler
	events        idem.Store
	signingSecret string
	now           func() time.Time
}

// NewHandler initializes the handler with its stores and the settler.
func NewHandler(orders order.Repository, settler *settlement.Settler, events idem.Store, signingSecret string) *Handler {
	return &Handler{
		orders:        orders,
		settler:       settler,
		events:        events,
		signingSecret: signingSecret,
		now:           time.Now,
	}
}

// HandlePaymentEvent terminates one webhook delivery: verify the signature,
// claim the processed-event marker, then dispatch on event type.
//
// Settlement failures do NOT fail the response: the error is attached to
// the marker for operator follow-up and the endpoint still acknowledges the
// delivery, so the provider does not redeliver the event forever. Only
// transport-level problems (bad signature, bad payload, marker store down)
// produce non-2xx responses.
func (h *Handler) HandlePaymentEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	if err := VerifySignature(body, r.Header.Get("Dealfynd-Signature"), h.signingSecret, h.now()); err != nil {
		slog.WarnContext(ctx, "webhook signature rejected", "error", err)
		writeError(w, http.StatusBadRequest, "invalid_signature", "")
		return
	}

	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if ev.ID == "" || ev.Type == "" {
		writeError(w, http.StatusBadRequest, "invalid_event", "id and type are required")
		return
	}

	// Claim the marker atomically before doing any work. Losing the claim
	// means another delivery of this event already ran (or is running).
	created, err := h.events.Create(ctx, idem.Marker{
		EventID:     ev.ID,
		EventType:   ev.Type,
		ProcessedAt: h.now().UTC(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "marker store unavailable", "event_id", ev.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "marker_unavailable", "")
		return
	}
	if !created {
		slog.InfoContext(ctx, "duplicate webhook delivery, skipping", "event_id", ev.ID, "event_type", ev.Type)
		writeJSON(w, http.StatusOK, eventAck{Received: true, Duplicate: true})
		return
	}

	switch ev.Type {
	case EventPaymentSucceeded:
		h.handlePaymentSucceeded(r, ev)
	case EventPaymentFailed:
		h.handlePaymentFailed(r, ev)
	default:
		slog.InfoContext(ctx, "ignoring webhook event type", "event_id", ev.ID, "event_type", ev.Type)
	}

	writeJSON(w, http.StatusOK, eventAck{Received: true})
}

// handlePaymentSucceeded runs the settlement pipeline for the order the
// charge belongs to. Any failure is swallowed into the marker.
func (h *Handler) handlePaymentSucceeded(r *http.Request, ev Event) {
	ctx := r.Context()

	orderID := ev.Data.Object.Metadata[metadataOrderID]
	if orderID == "" {
		h.recordFailure(r, ev, "event carries no order_id metadata")
		return
	}

	ord, err := h.orders.Get(ctx, orderID)
	if err != nil {
		h.recordFailure(r, ev, "load order "+orderID+": "+err.Error())
		return
	}
	if ord.Status != order.StatusPending {
		slog.InfoContext(ctx, "order already in terminal status, skipping settlement",
			"order_id", ord.ID, "status", ord.Status, "event_id", ev.ID)
		return
	}

	if err := h.settler.Settle(ctx, ord, ev.Data.Object.ID, ev.Data.Object.ReceiptURL); err != nil {
		h.recordFailure(r, ev, err.Error())
		return
	}
}

// handlePaymentFailed marks the order failed. This path never invokes the
// allocator.
func (h *Handler) handlePaymentFailed(r *http.Request, ev Event) {
	ctx := r.Context()

	orderID := ev.Data.Object.Metadata[metadataOrderID]
	if orderID == "" {
		h.recordFailure(r, ev, "event carries no order_id metadata")
		return
	}

	reason := ev.Data.Object.FailureMessage
	if reason == "" {
		reason = "payment failed"
	}

	err := h.orders.MarkFailed(ctx, orderID, reason)
	switch {
	case errors.Is(err, order.ErrStatusFinal):
		slog.InfoContext(ctx, "order already in terminal status, ignoring failure event",
			"order_id", orderID, "event_id", ev.ID)
	case err != nil:
		h.recordFailure(r, ev, "mark order "+orderID+" failed: "+err.Error())
	default:
		slog.InfoContext(ctx, "order marked failed", "order_id", orderID, "reason", reason)
	}
}

// recordFailure logs the problem and attaches it to the processed-event
// marker. The webhook still responds 200: redelivering the event cannot fix
// an inconsistency that needs operator follow-up, and endless redelivery
// would only add noise.
func (h *Handler) recordFailure(r *http.Request, ev Event, msg string) {
	ctx := r.Context()
	slog.ErrorContext(ctx, "webhook event processing failed",
		"event_id", ev.ID, "event_type", ev.Type, "error", msg)
	if err := h.events.AttachError(ctx, ev.ID, msg); err != nil {
		slog.ErrorContext(ctx, "failed to attach error to event marker",
			"event_id", ev.ID, "error", err)
	}
}

// GetOrderByID returns the settlement status of a single order.
func (h *Handler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "order_id_required", "")
		return
	}

	ord, err := h.orders.Get(r.Context(), orderID)
	if errors.Is(err, order.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order_not_found", "")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "order_store_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, mapOrderToResponse(ord))
}

// Healthz is a trivial liveness endpoint.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func mapOrderToResponse(o *order.Order) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID,
		Status:          string(o.Status),
		SettlementState: string(o.SettlementState),
		Currency:        o.Currency,
		SubtotalAmount:  o.SubtotalAmount,
		ShippingAmount:  o.ShippingAmount,
		FailureReason:   o.FailureReason,
		ReceiptURL:      o.ReceiptURL,
		Transfers:       make([]TransferResponse, 0, len(o.Transfers)),
		CreatedAt:       o.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       o.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if o.Fees != nil {
		resp.Fees = &FeesResponse{
			ProcessorFeeOre: o.Fees.ProcessorFeeOre,
			SubtotalFeeOre:  o.Fees.SubtotalFeeOre,
			ShippingFeeOre:  o.Fees.ShippingFeeOre,
		}
	}
	for _, t := range o.Transfers {
		resp.Transfers = append(resp.Transfers, TransferResponse{
			SellerID:    t.SellerID,
			Destination: t.Destination,
			Amount:      float64(t.AmountOre) / 100,
			AmountOre:   t.AmountOre,
			TransferID:  t.TransferID,
			Failed:      t.Failed(),
			CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
