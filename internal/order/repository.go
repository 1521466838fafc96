package order

import "context"

// Repository is the port for order persistence. The settlement core depends
// on this abstraction, not on SQLite directly, so it can be swapped for an
// in-memory implementation in tests.
type Repository interface {
	// Get returns the order with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Order, error)

	// Create persists a new order in StatusPending.
	Create(ctx context.Context, o *Order) error

	// MarkFailed transitions a pending order to StatusFailed with the given
	// reason. Returns ErrStatusFinal if the order already reached a terminal
	// status.
	MarkFailed(ctx context.Context, id, reason string) error

	// SaveSettlementState persists only the settlement state field. Written
	// before transfer issuance so a crash mid-settlement is observable.
	SaveSettlementState(ctx context.Context, id string, state SettlementState) error

	// SaveSettlement persists the settlement outcome: status, settlement
	// state, fee breakdown, merged transfer list and receipt URL.
	SaveSettlement(ctx context.Context, o *Order) error
}
