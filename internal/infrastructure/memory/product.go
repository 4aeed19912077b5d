package memory

import (
	"context"
	"fmt"

	"shopd/internal/domain/product"
)

func (s *Store) Get(ctx context.Context, id string) (*product.Product, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (s *Store) List(ctx context.Context) ([]*product.Product, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*product.Product, 0, len(s.productIDs))
	for _, id := range s.productIDs {
		out = append(out, cloneProduct(s.products[id]))
	}
	return out, nil
}

func (s *Store) Save(ctx context.Context, p *product.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("memory: product id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ID]; !exists {
		s.productIDs = append(s.productIDs, p.ID)
	}
	s.products[p.ID] = cloneProduct(p)
	return nil
}
