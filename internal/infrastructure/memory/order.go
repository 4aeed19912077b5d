package memory

import (
	"context"
	"fmt"
	"time"

	"shopd/internal/domain/order"
	"shopd/internal/domain/payment"
	"shopd/internal/domain/product"
)

func (s *Store) CreateCheckout(ctx context.Context, o *order.Order, items []*order.Item, p *payment.Payment) error {
	_ = ctx
	if o == nil || o.ID == "" || p == nil || p.ID == "" {
		return fmt.Errorf("memory: order and payment ids are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID]; exists {
		return fmt.Errorf("memory: order %s already exists", o.ID)
	}
	if o.SessionID != "" {
		if _, exists := s.orderBySession[o.SessionID]; exists {
			return fmt.Errorf("memory: session %s already has an order", o.SessionID)
		}
	}
	if _, exists := s.payments[p.ID]; exists {
		return fmt.Errorf("memory: payment %s already exists", p.ID)
	}

	s.orders[o.ID] = cloneOrder(o)
	s.orderIDs = append(s.orderIDs, o.ID)
	if o.SessionID != "" {
		s.orderBySession[o.SessionID] = o.ID
	}

	stored := make([]*order.Item, 0, len(items))
	for _, item := range items {
		stored = append(stored, cloneItem(item))
	}
	s.items[o.ID] = stored

	s.payments[p.ID] = clonePayment(p)
	s.paymentIDs = append(s.paymentIDs, p.ID)
	s.paymentByOrder[p.OrderID] = p.ID
	return nil
}

func (s *Store) ApplyConfirm(ctx context.Context, upd order.ConfirmUpdate) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[upd.OrderID]
	if !ok {
		return order.ErrNotFound
	}
	payID, ok := s.paymentByOrder[upd.OrderID]
	if !ok {
		return payment.ErrNotFound
	}

	// Validate every decrement before mutating anything so a failure is
	// indistinguishable from the unit never having run.
	for _, d := range upd.Decrements {
		p, exists := s.products[d.ProductID]
		if !exists {
			return fmt.Errorf("memory: decrement %s: %w", d.ProductID, product.ErrNotFound)
		}
		if p.Stock < d.Quantity {
			return fmt.Errorf("memory: decrement %s: %w", d.ProductID, product.ErrInsufficientStock)
		}
	}

	now := time.Now().UTC()

	pay := s.payments[payID]
	pay.Status = payment.StatusCompleted
	pay.UpdatedAt = now

	o.Status = order.StatusInProcess
	o.UpdatedAt = now

	for _, d := range upd.Decrements {
		p := s.products[d.ProductID]
		p.Stock -= d.Quantity
		p.UpdatedAt = now
	}

	if !upd.ClearIdentity.IsZero() {
		s.clearLocked(upd.ClearIdentity)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*order.Order, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *Store) FindBySessionID(ctx context.Context, sessionID string) (*order.Order, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.orderBySession[sessionID]
	if !ok {
		return nil, order.ErrNotFound
	}
	return cloneOrder(s.orders[id]), nil
}

func (s *Store) ListItems(ctx context.Context, orderID string) ([]*order.Item, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.items[orderID]
	out := make([]*order.Item, 0, len(items))
	for _, item := range items {
		out = append(out, cloneItem(item))
	}
	return out, nil
}

func (s *Store) ListOrders(ctx context.Context, page, perPage int) ([]*order.Order, int, error) {
	_ = ctx
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.orderIDs)
	start := (page - 1) * perPage
	if start >= total {
		return nil, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}

	// Newest first: walk the insertion order backwards.
	out := make([]*order.Order, 0, end-start)
	for i := total - 1 - start; i >= total-end; i-- {
		out = append(out, cloneOrder(s.orders[s.orderIDs[i]]))
	}
	return out, total, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) FindByOrderID(ctx context.Context, orderID string) (*payment.Payment, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.paymentByOrder[orderID]
	if !ok {
		return nil, payment.ErrNotFound
	}
	return clonePayment(s.payments[id]), nil
}

func (s *Store) ListPayments(ctx context.Context, page, perPage int) ([]*payment.Payment, int, error) {
	_ = ctx
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.paymentIDs)
	start := (page - 1) * perPage
	if start >= total {
		return nil, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}

	out := make([]*payment.Payment, 0, end-start)
	for i := total - 1 - start; i >= total-end; i-- {
		out = append(out, clonePayment(s.payments[s.paymentIDs[i]]))
	}
	return out, total, nil
}
