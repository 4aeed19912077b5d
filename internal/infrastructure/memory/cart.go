package memory

import (
	"context"
	"fmt"
	"time"

	"shopd/internal/domain/cart"
)

func (s *Store) FindLine(ctx context.Context, identity cart.Identity, productID string) (*cart.Line, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	line := s.findLineLocked(identity, productID)
	if line == nil {
		return nil, cart.ErrNotFound
	}
	return cloneLine(line), nil
}

func (s *Store) findLineLocked(identity cart.Identity, productID string) *cart.Line {
	for _, id := range s.lineOrder {
		line := s.lines[id]
		if line.Identity == identity && line.ProductID == productID {
			return line
		}
	}
	return nil
}

func (s *Store) ListLines(ctx context.Context, identity cart.Identity) ([]*cart.Line, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*cart.Line
	for _, id := range s.lineOrder {
		if line := s.lines[id]; line.Identity == identity {
			out = append(out, cloneLine(line))
		}
	}
	return out, nil
}

func (s *Store) InsertLine(ctx context.Context, line *cart.Line) error {
	_ = ctx
	if line == nil || line.ID == "" {
		return fmt.Errorf("memory: line id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.lines[line.ID]; exists {
		return fmt.Errorf("memory: line %s already exists", line.ID)
	}
	if s.findLineLocked(line.Identity, line.ProductID) != nil {
		return fmt.Errorf("memory: duplicate line for %s/%s", line.Identity.Key(), line.ProductID)
	}

	s.lines[line.ID] = cloneLine(line)
	s.lineOrder = append(s.lineOrder, line.ID)
	return nil
}

func (s *Store) UpdateLineQuantity(ctx context.Context, lineID string, quantity int) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.lines[lineID]
	if !ok {
		return cart.ErrNotFound
	}
	line.Quantity = quantity
	line.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) RekeyLine(ctx context.Context, lineID string, to cart.Identity) error {
	_ = ctx
	if to.IsZero() {
		return cart.ErrIdentityRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.lines[lineID]
	if !ok {
		return cart.ErrNotFound
	}
	line.Identity = to
	line.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) DeleteLine(ctx context.Context, lineID string) (*cart.Line, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.lines[lineID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	s.deleteLineLocked(lineID)
	return line, nil
}

func (s *Store) Clear(ctx context.Context, identity cart.Identity) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked(identity)
	return nil
}

func (s *Store) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []string
	for id, line := range s.lines {
		if line.CreatedAt.Before(before) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		s.deleteLineLocked(id)
	}
	return len(expired), nil
}

func (s *Store) deleteLineLocked(lineID string) {
	delete(s.lines, lineID)
	for i, id := range s.lineOrder {
		if id == lineID {
			s.lineOrder = append(s.lineOrder[:i], s.lineOrder[i+1:]...)
			break
		}
	}
}

func (s *Store) clearLocked(identity cart.Identity) {
	var keep []string
	for _, id := range s.lineOrder {
		if s.lines[id].Identity == identity {
			delete(s.lines, id)
		} else {
			keep = append(keep, id)
		}
	}
	s.lineOrder = keep
}
