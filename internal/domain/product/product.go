package product

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("product: not found")
	ErrInvalidPrice      = errors.New("product: price must be zero or greater")
	ErrInvalidStock      = errors.New("product: stock must be zero or greater")
	ErrInsufficientStock = errors.New("product: insufficient stock")
)

type Product struct {
	ID        string
	Name      string
	Price     float64
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, name string, price float64, stock int) (*Product, error) {
	if id == "" {
		return nil, errors.New("product: id is required")
	}
	if price < 0 {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}

	now := time.Now().UTC()
	return &Product{
		ID:        id,
		Name:      name,
		Price:     price,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Repository is the catalog read model. Stock is never mutated through this
// interface; the only stock writer is the checkout confirmation transaction.
type Repository interface {
	Get(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	// Save inserts or replaces a catalog entry (seeding and admin tooling).
	Save(ctx context.Context, p *Product) error
}
