package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	domain "shopd/internal/domain/cart"
	"shopd/internal/domain/product"
	"shopd/internal/pkg/logging"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// View is one cart line with its catalog data resolved. Product is nil when
// the referenced product no longer exists; pricing treats such lines as free.
type View struct {
	LineID    string           `json:"line_id"`
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Product   *product.Product `json:"product,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Service is the cart store: line items keyed by a session-or-user identity,
// with an upsert-sum AddItem, a read-through cache and the login-time merge.
type Service struct {
	repo     domain.Repository
	products product.Repository
	cache    Cache
	ids      IDGenerator
	sfg      singleflight.Group

	// gens holds one counter per identity key, bumped on every
	// invalidation. A cache fill only stores its snapshot when the counter
	// has not moved since the snapshot was read, so a write racing the fill
	// cannot resurrect a stale view.
	gens sync.Map // identity key -> *atomic.Uint64
}

func NewService(repo domain.Repository, products product.Repository, cache Cache, ids IDGenerator) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{
		repo:     repo,
		products: products,
		cache:    cache,
		ids:      ids,
	}
}

// AddItem adds quantity of a product to the identity's cart, summing into an
// existing line when one exists. When the caller has no identity at all, a
// fresh anonymous session identity is minted and returned; in every other
// case the returned identity equals the input.
func (s *Service) AddItem(ctx context.Context, identity domain.Identity, productID string, quantity int) (domain.Identity, error) {
	if quantity < 1 {
		return identity, domain.ErrInvalidQuantity
	}

	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return identity, err
	}
	if quantity > p.Stock {
		return identity, domain.ErrQuantityExceedsStock
	}

	if identity.IsZero() {
		identity = domain.SessionIdentity("cart_" + s.ids.NewID())
	}

	existing, err := s.repo.FindLine(ctx, identity, productID)
	switch {
	case err == nil:
		newQuantity := existing.Quantity + quantity
		if newQuantity > p.Stock {
			return identity, domain.ErrQuantityExceedsStock
		}
		if err := s.repo.UpdateLineQuantity(ctx, existing.ID, newQuantity); err != nil {
			return identity, fmt.Errorf("cart: update line: %w", err)
		}
	case errors.Is(err, domain.ErrNotFound):
		line, derr := domain.NewLine(s.ids.NewID(), identity, productID, quantity)
		if derr != nil {
			return identity, derr
		}
		if err := s.repo.InsertLine(ctx, line); err != nil {
			return identity, fmt.Errorf("cart: insert line: %w", err)
		}
	default:
		return identity, fmt.Errorf("cart: lookup line: %w", err)
	}

	s.invalidate(ctx, identity)
	return identity, nil
}

// UpdateItem overwrites the quantity of an existing line.
func (s *Service) UpdateItem(ctx context.Context, identity domain.Identity, productID string, quantity int) error {
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}
	if identity.IsZero() {
		return domain.ErrIdentityRequired
	}

	line, err := s.repo.FindLine(ctx, identity, productID)
	if err != nil {
		return err
	}

	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return err
	}
	if quantity > p.Stock {
		return domain.ErrQuantityExceedsStock
	}

	if err := s.repo.UpdateLineQuantity(ctx, line.ID, quantity); err != nil {
		return fmt.Errorf("cart: update line: %w", err)
	}

	s.invalidate(ctx, identity)
	return nil
}

// RemoveItem deletes a single line by id.
func (s *Service) RemoveItem(ctx context.Context, lineID string) error {
	line, err := s.repo.DeleteLine(ctx, lineID)
	if err != nil {
		return err
	}

	s.invalidate(ctx, line.Identity)
	return nil
}

// Clear empties the identity's cart; clearing an empty cart succeeds.
func (s *Service) Clear(ctx context.Context, identity domain.Identity) error {
	if identity.IsZero() {
		return domain.ErrIdentityRequired
	}
	if err := s.repo.Clear(ctx, identity); err != nil {
		return fmt.Errorf("cart: clear: %w", err)
	}

	s.invalidate(ctx, identity)
	return nil
}

// ListItems returns the identity's lines in insertion order with resolved
// product data. Reads go through the cache; concurrent misses for the same
// identity collapse into one repository read.
func (s *Service) ListItems(ctx context.Context, identity domain.Identity) ([]View, error) {
	if identity.IsZero() {
		return nil, domain.ErrIdentityRequired
	}

	v, err, _ := s.sfg.Do(identity.Key(), func() (any, error) {
		views, cacheErr := s.cache.Get(ctx, identity)
		if cacheErr == nil {
			return views, nil
		}
		if !errors.Is(cacheErr, ErrCacheMiss) {
			logging.FromContext(ctx).Warn("cart_cache_get_failed", zap.Error(cacheErr))
		}

		gen := s.generation(identity)
		before := gen.Load()

		views, loadErr := s.load(ctx, identity)
		if loadErr != nil {
			return nil, loadErr
		}

		go func() {
			if gen.Load() != before {
				// An invalidation intervened; the snapshot is stale.
				return
			}
			fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()
			if setErr := s.cache.Set(fillCtx, identity, views); setErr != nil {
				logging.FromContext(fillCtx).Warn("cart_cache_set_failed", zap.Error(setErr))
			}
		}()

		return views, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]View), nil
}

func (s *Service) load(ctx context.Context, identity domain.Identity) ([]View, error) {
	lines, err := s.repo.ListLines(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("cart: list lines: %w", err)
	}

	views := make([]View, 0, len(lines))
	for _, line := range lines {
		view := View{
			LineID:    line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			CreatedAt: line.CreatedAt,
		}
		p, perr := s.products.Get(ctx, line.ProductID)
		if perr == nil {
			view.Product = p
		} else if !errors.Is(perr, product.ErrNotFound) {
			return nil, fmt.Errorf("cart: resolve product: %w", perr)
		}
		views = append(views, view)
	}
	return views, nil
}

// Invalidate drops any cached view for the identity. Callers that empty a
// cart outside this service (the confirmation transaction) use it to keep
// the cache honest.
func (s *Service) Invalidate(ctx context.Context, identity domain.Identity) {
	s.invalidate(ctx, identity)
}

func (s *Service) generation(identity domain.Identity) *atomic.Uint64 {
	v, _ := s.gens.LoadOrStore(identity.Key(), new(atomic.Uint64))
	return v.(*atomic.Uint64)
}

func (s *Service) invalidate(ctx context.Context, identity domain.Identity) {
	s.generation(identity).Add(1)

	dropCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(dropCtx, identity); err != nil {
		logging.FromContext(ctx).Warn("cart_cache_invalidate_failed", zap.Error(err))
	}
}
