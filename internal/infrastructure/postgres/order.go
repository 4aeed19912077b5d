package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopd/internal/domain/order"
	"shopd/internal/domain/payment"
	"shopd/internal/domain/product"
)

func (s *Store) CreateCheckout(ctx context.Context, o *order.Order, items []*order.Item, p *payment.Payment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkout: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, total_price, session_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.UserID, o.TotalPrice, o.SessionID, o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, price, quantity, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, item.OrderID, item.ProductID, item.Price, item.Quantity, item.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO payments (id, order_id, method, transaction_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.OrderID, p.Method, p.TransactionID, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkout: %w", err)
	}
	return nil
}

func (s *Store) ApplyConfirm(ctx context.Context, upd order.ConfirmUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin confirm: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = $2, updated_at = NOW() WHERE order_id = $1`,
		upd.OrderID, payment.StatusCompleted)
	if err != nil {
		return fmt.Errorf("complete payment: %w", err)
	}
	if err := requireRow(res, payment.ErrNotFound); err != nil {
		return err
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
		upd.OrderID, order.StatusInProcess)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if err := requireRow(res, order.ErrNotFound); err != nil {
		return err
	}

	// The guard in the WHERE clause is what keeps stock non-negative under
	// concurrent confirms: no matched row means insufficient stock, which
	// rolls back the whole unit.
	for _, dec := range upd.Decrements {
		res, err = tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = NOW()
			 WHERE id = $1 AND stock >= $2`,
			dec.ProductID, dec.Quantity)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("decrement stock rows affected: %w", err)
		}
		if n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, dec.ProductID).Scan(&exists); err != nil {
				return fmt.Errorf("check product exists: %w", err)
			}
			if !exists {
				return product.ErrNotFound
			}
			return product.ErrInsufficientStock
		}
	}

	if !upd.ClearIdentity.IsZero() {
		clause, arg := identityWhere(upd.ClearIdentity)
		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE `+clause, arg); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit confirm: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*order.Order, error) {
	return s.findOrder(ctx, `WHERE id = $1`, id)
}

func (s *Store) FindBySessionID(ctx context.Context, sessionID string) (*order.Order, error) {
	return s.findOrder(ctx, `WHERE session_id = $1`, sessionID)
}

func (s *Store) findOrder(ctx context.Context, where string, arg any) (*order.Order, error) {
	query := `SELECT id, user_id, total_price, session_id, status, created_at, updated_at
	          FROM orders ` + where

	var o order.Order
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&o.ID, &o.UserID, &o.TotalPrice, &o.SessionID, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return &o, nil
}

func (s *Store) ListItems(ctx context.Context, orderID string) ([]*order.Item, error) {
	query := `SELECT id, order_id, product_id, price, quantity, created_at
	          FROM order_items WHERE order_id = $1 ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []*order.Item
	for rows.Next() {
		var it order.Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Price, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (s *Store) ListOrders(ctx context.Context, page, perPage int) ([]*order.Order, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := `SELECT id, user_id, total_price, session_id, status, created_at, updated_at
	          FROM orders ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		var o order.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalPrice, &o.SessionID, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, &o)
	}
	return orders, total, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return requireRow(res, order.ErrNotFound)
}

func (s *Store) FindByOrderID(ctx context.Context, orderID string) (*payment.Payment, error) {
	query := `SELECT id, order_id, method, transaction_id, status, created_at, updated_at
	          FROM payments WHERE order_id = $1`

	var p payment.Payment
	err := s.db.QueryRowContext(ctx, query, orderID).Scan(
		&p.ID, &p.OrderID, &p.Method, &p.TransactionID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payment.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query payment: %w", err)
	}
	return &p, nil
}

func (s *Store) ListPayments(ctx context.Context, page, perPage int) ([]*payment.Payment, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	query := `SELECT id, order_id, method, transaction_id, status, created_at, updated_at
	          FROM payments ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		var p payment.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Method, &p.TransactionID, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, &p)
	}
	return payments, total, rows.Err()
}
