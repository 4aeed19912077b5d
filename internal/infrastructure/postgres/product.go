package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopd/internal/domain/product"
)

func (s *Store) Get(ctx context.Context, id string) (*product.Product, error) {
	query := `SELECT id, name, price, stock, created_at, updated_at FROM products WHERE id = $1`

	var p product.Product
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, product.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (s *Store) List(ctx context.Context) ([]*product.Product, error) {
	query := `SELECT id, name, price, stock, created_at, updated_at FROM products ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*product.Product
	for rows.Next() {
		var p product.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

func (s *Store) Save(ctx context.Context, p *product.Product) error {
	query := `INSERT INTO products (id, name, price, stock, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (id) DO UPDATE
	          SET name = EXCLUDED.name, price = EXCLUDED.price, stock = EXCLUDED.stock,
	              updated_at = EXCLUDED.updated_at`

	_, err := s.db.ExecContext(ctx, query, p.ID, p.Name, p.Price, p.Stock, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}
