// Package settlelog defines the domain types for the settlement audit log.
//
// The log is a durable trail of every phase a settlement run goes through.
// It serves two purposes:
//
//  1. Observability: you can query the DB to see exactly where a settlement
//     is (or stalled) and correlate it with a distributed trace via the
//     trace_id field.
//
//  2. Reconciliation: an order whose latest entry is TRANSFERS_ISSUED but
//     never reached RECORDED had payouts leave the building without being
//     written back — the partial-completion case operators have to resolve
//     by hand.
package settlelog

import "time"

// Phase represents the lifecycle state of a settlement run.
type Phase string

const (
	PhaseStarted         Phase = "STARTED"
	PhaseFeeRetrieved    Phase = "FEE_RETRIEVED"
	PhaseTransfersIssued Phase = "TRANSFERS_ISSUED"
	PhaseRecorded        Phase = "RECORDED"
	PhaseFailed          Phase = "FAILED"
)

// Entry is a single row in the settlement_logs table.
// It captures a point-in-time snapshot of a settlement run.
type Entry struct {
	// OrderID identifies the settlement run. One order settles at most once,
	// so the order ID doubles as the run ID and joins with business data.
	OrderID string

	// Phase is the lifecycle state reached when this entry was written.
	Phase Phase

	// Detail carries phase-specific context: the retrieved fee in öre, the
	// number of transfers issued, or the error message on FAILED.
	Detail string

	// TraceID is the W3C trace ID extracted from the OpenTelemetry span that
	// was active when this entry was written, so a log row can be followed
	// straight to the full trace.
	TraceID string

	// SpanID pinpoints the exact span within the trace.
	SpanID string

	// CreatedAt is the wall-clock time of this entry.
	CreatedAt time.Time
}
