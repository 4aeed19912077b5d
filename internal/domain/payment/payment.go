package payment

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("payment: not found")

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Payment records the external transaction attached to an order. It is
// created together with the order and mutated exactly once, to completed,
// inside the confirmation transaction.
type Payment struct {
	ID            string
	OrderID       string
	Method        string
	TransactionID string
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func New(id, orderID, method, transactionID string) (*Payment, error) {
	if id == "" || orderID == "" {
		return nil, errors.New("payment: id and order id are required")
	}

	now := time.Now().UTC()
	return &Payment{
		ID:            id,
		OrderID:       orderID,
		Method:        method,
		TransactionID: transactionID,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Repository is the payment read model; all writes go through the checkout
// store's transactional units.
type Repository interface {
	FindByOrderID(ctx context.Context, orderID string) (*Payment, error)
	// ListPayments returns payments newest-first with the total count for
	// pagination.
	ListPayments(ctx context.Context, page, perPage int) ([]*Payment, int, error)
}
