package order

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("order: not found")
	ErrInvalidStatus     = errors.New("order: invalid status")
	ErrInvalidTransition = errors.New("order: illegal status transition")
	ErrInvalidPrice      = errors.New("order: total price must be zero or greater")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusInProcess Status = "in_process"
	StatusShipped   Status = "shipped"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates an externally supplied status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusInProcess, StatusShipped, StatusCancelled:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// Order is created only from a non-empty cart at checkout initiation and is
// never physically removed; cancellation is a status transition.
type Order struct {
	ID         string
	UserID     string
	TotalPrice float64
	// SessionID is the external payment-session reference.
	SessionID string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, userID string, totalPrice float64, sessionID string) (*Order, error) {
	if id == "" || userID == "" {
		return nil, errors.New("order: id and user id are required")
	}
	if totalPrice < 0 {
		return nil, ErrInvalidPrice
	}

	now := time.Now().UTC()
	return &Order{
		ID:         id,
		UserID:     userID,
		TotalPrice: totalPrice,
		SessionID:  sessionID,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Item captures a cart line at order-creation time. Price and quantity are
// snapshots, immune to later product or cart changes, and never mutated.
type Item struct {
	ID        string
	OrderID   string
	ProductID string
	Price     float64
	Quantity  int
	CreatedAt time.Time
}

func NewItem(id, orderID, productID string, price float64, quantity int) (*Item, error) {
	if id == "" || orderID == "" || productID == "" {
		return nil, errors.New("order: item ids are required")
	}
	if quantity < 1 {
		return nil, errors.New("order: item quantity must be greater than zero")
	}

	return &Item{
		ID:        id,
		OrderID:   orderID,
		ProductID: productID,
		Price:     price,
		Quantity:  quantity,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
