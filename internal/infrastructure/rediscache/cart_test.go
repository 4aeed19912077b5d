package rediscache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcart "shopd/internal/application/cart"
	"shopd/internal/domain/cart"
)

func setupCache(t *testing.T) (*CartCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCartCache(client), mr
}

func TestSetThenGet(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()
	identity := cart.UserIdentity("u1")

	views := []appcart.View{
		{LineID: "l1", ProductID: "p1", Quantity: 2},
		{LineID: "l2", ProductID: "p2", Quantity: 1},
	}
	require.NoError(t, cache.Set(ctx, identity, views))

	got, err := cache.Get(ctx, identity)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ProductID)
	assert.Equal(t, 2, got[0].Quantity)
}

func TestGetMiss(t *testing.T) {
	cache, _ := setupCache(t)

	_, err := cache.Get(context.Background(), cart.UserIdentity("nobody"))
	assert.ErrorIs(t, err, appcart.ErrCacheMiss)
}

func TestDelete(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()
	identity := cart.SessionIdentity("cart_s1")

	require.NoError(t, cache.Set(ctx, identity, []appcart.View{{LineID: "l1", ProductID: "p1", Quantity: 1}}))
	require.NoError(t, cache.Delete(ctx, identity))

	_, err := cache.Get(ctx, identity)
	assert.ErrorIs(t, err, appcart.ErrCacheMiss)

	// Deleting an absent key is not an error.
	assert.NoError(t, cache.Delete(ctx, identity))
}

func TestSessionAndUserKeysAreDistinct(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, cart.SessionIdentity("x"), []appcart.View{{LineID: "l1", ProductID: "p1", Quantity: 1}}))
	require.NoError(t, cache.Set(ctx, cart.UserIdentity("x"), []appcart.View{{LineID: "l2", ProductID: "p2", Quantity: 2}}))

	fromSession, err := cache.Get(ctx, cart.SessionIdentity("x"))
	require.NoError(t, err)
	fromUser, err := cache.Get(ctx, cart.UserIdentity("x"))
	require.NoError(t, err)

	assert.Equal(t, "p1", fromSession[0].ProductID)
	assert.Equal(t, "p2", fromUser[0].ProductID)
}

func TestEntriesExpire(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()
	identity := cart.UserIdentity("u1")

	require.NoError(t, cache.Set(ctx, identity, []appcart.View{{LineID: "l1", ProductID: "p1", Quantity: 1}}))

	mr.FastForward(cache.baseTTL * 2)

	_, err := cache.Get(ctx, identity)
	assert.ErrorIs(t, err, appcart.ErrCacheMiss)
}
