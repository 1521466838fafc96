package settlelog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceInfo holds the OTel identifiers extracted from a context.
type TraceInfo struct {
	// TraceID is the W3C trace ID (32 lowercase hex chars).
	// Empty string if no active span is found in the context.
	TraceID string

	// SpanID is the W3C span ID (16 lowercase hex chars).
	SpanID string
}

// ExtractTraceInfo reads the active OpenTelemetry span from ctx and returns
// its trace_id and span_id as hex strings. The otelhttp middleware on the
// webhook endpoint creates the server-side span and stores it in the
// request context; everything downstream of the handler inherits it.
//
// If the context carries no active span (e.g. in unit tests), both fields
// are returned as empty strings — the caller should handle this gracefully.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	span := trace.SpanFromContext(ctx)
	sc := span.SpanContext()

	if !sc.IsValid() {
		return TraceInfo{}
	}

	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEntry is a convenience constructor that builds an Entry with the trace
// info automatically extracted from ctx.
//
// Usage in the settler:
//
//	entry := settlelog.NewEntry(ctx, orderID, settlelog.PhaseFeeRetrieved, "fee_ore=3000")
//	_ = repo.Save(ctx, entry)
func NewEntry(ctx context.Context, orderID string, phase Phase, detail string) *Entry {
	ti := ExtractTraceInfo(ctx)

	return &Entry{
		OrderID:   orderID,
		Phase:     phase,
		Detail:    detail,
		TraceID:   ti.TraceID,
		SpanID:    ti.SpanID,
		CreatedAt: time.Now().UTC(),
	}
}
