package cart

import (
	"context"
	"errors"

	domain "shopd/internal/domain/cart"
)

type IDGenerator interface {
	NewID() string
}

// ErrCacheMiss is returned by Cache.Get when the identity has no entry.
var ErrCacheMiss = errors.New("cart: cache miss")

// Cache fronts cart reads. Implementations must treat the cache as
// best-effort; the repository stays the source of truth.
type Cache interface {
	Get(ctx context.Context, identity domain.Identity) ([]View, error)
	Set(ctx context.Context, identity domain.Identity, views []View) error
	Delete(ctx context.Context, identity domain.Identity) error
}

// NopCache disables caching.
type NopCache struct{}

func (NopCache) Get(context.Context, domain.Identity) ([]View, error) { return nil, ErrCacheMiss }
func (NopCache) Set(context.Context, domain.Identity, []View) error   { return nil }
func (NopCache) Delete(context.Context, domain.Identity) error        { return nil }
