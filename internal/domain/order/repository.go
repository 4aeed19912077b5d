package order

import (
	"context"

	"shopd/internal/domain/cart"
	"shopd/internal/domain/payment"
)

// StockDecrement is one product-level stock mutation inside a confirmation.
type StockDecrement struct {
	ProductID string
	Quantity  int
}

// ConfirmUpdate describes the single atomic unit applied on gateway
// confirmation: payment completed, order in_process, stock decremented per
// item, and the purchasing user's cart cleared. Any failure rolls the whole
// unit back; in particular a decrement that would drive stock negative fails
// with product.ErrInsufficientStock and nothing is applied.
type ConfirmUpdate struct {
	OrderID       string
	Decrements    []StockDecrement
	ClearIdentity cart.Identity
}

// Store owns orders, order items and payments. The multi-row writes are
// transactional: either everything inside a call is visible afterwards or
// nothing is.
type Store interface {
	// CreateCheckout atomically persists the order, its items and the
	// pending payment.
	CreateCheckout(ctx context.Context, o *Order, items []*Item, p *payment.Payment) error
	ApplyConfirm(ctx context.Context, upd ConfirmUpdate) error

	FindByID(ctx context.Context, id string) (*Order, error)
	FindBySessionID(ctx context.Context, sessionID string) (*Order, error)
	ListItems(ctx context.Context, orderID string) ([]*Item, error)
	// ListOrders returns orders newest-first with the total count for pagination.
	ListOrders(ctx context.Context, page, perPage int) ([]*Order, int, error)
	UpdateStatus(ctx context.Context, id string, s Status) error
}
