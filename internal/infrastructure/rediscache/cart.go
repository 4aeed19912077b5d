package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	appcart "shopd/internal/application/cart"
	"shopd/internal/domain/cart"
)

// CartCache keeps rendered cart views in redis. TTLs are jittered so a burst
// of writes does not expire in one wave.
type CartCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewCartCache(client *redis.Client) *CartCache {
	return &CartCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

func (c *CartCache) Get(ctx context.Context, identity cart.Identity) ([]appcart.View, error) {
	data, err := c.client.Get(ctx, cacheKey(identity)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, appcart.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var views []appcart.View
	if err := json.Unmarshal(data, &views); err != nil {
		return nil, fmt.Errorf("unmarshal cart views: %w", err)
	}
	return views, nil
}

func (c *CartCache) Set(ctx context.Context, identity cart.Identity, views []appcart.View) error {
	data, err := json.Marshal(views)
	if err != nil {
		return fmt.Errorf("marshal cart views: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := c.client.Set(ctx, cacheKey(identity), data, c.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *CartCache) Delete(ctx context.Context, identity cart.Identity) error {
	if err := c.client.Del(ctx, cacheKey(identity)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func cacheKey(identity cart.Identity) string {
	return "cart:" + identity.Key()
}
