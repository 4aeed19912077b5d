package cart

import (
	"context"
	"time"
)

// Repository persists cart lines. At most one line exists per
// (identity, product) pair; ListLines preserves insertion order.
type Repository interface {
	FindLine(ctx context.Context, identity Identity, productID string) (*Line, error)
	ListLines(ctx context.Context, identity Identity) ([]*Line, error)
	InsertLine(ctx context.Context, line *Line) error
	UpdateLineQuantity(ctx context.Context, lineID string, quantity int) error
	// RekeyLine moves an existing line to a new identity in place.
	RekeyLine(ctx context.Context, lineID string, to Identity) error
	// DeleteLine removes a single line and returns it, ErrNotFound if absent.
	DeleteLine(ctx context.Context, lineID string) (*Line, error)
	// Clear removes every line for the identity; a no-op on an empty cart.
	Clear(ctx context.Context, identity Identity) error
	// DeleteExpired removes lines created before the cutoff and reports how
	// many were removed. Lines already gone are not an error.
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}
