package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "shopd/internal/domain/cart"
)

func TestMergeSumsMatchingLine(t *testing.T) {
	svc, store := newTestService(t)
	seedProduct(t, store, "pA", 10, 100)
	ctx := context.Background()

	session := domain.SessionIdentity("cart_s1")
	user := domain.UserIdentity("u1")

	_, err := svc.AddItem(ctx, session, "pA", 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, user, "pA", 1)
	require.NoError(t, err)

	require.NoError(t, svc.Merge(ctx, "cart_s1", "u1"))

	userViews, err := svc.ListItems(ctx, user)
	require.NoError(t, err)
	require.Len(t, userViews, 1)
	assert.Equal(t, "pA", userViews[0].ProductID)
	assert.Equal(t, 3, userViews[0].Quantity)

	sessionViews, err := svc.ListItems(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, sessionViews, "no anonymous lines may survive the merge")
}

func TestMergeRekeysUnmatchedLines(t *testing.T) {
	svc, store := newTestService(t)
	seedProduct(t, store, "pA", 10, 100)
	seedProduct(t, store, "pB", 20, 100)
	ctx := context.Background()

	session := domain.SessionIdentity("cart_s1")
	user := domain.UserIdentity("u1")

	_, err := svc.AddItem(ctx, session, "pA", 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, session, "pB", 4)
	require.NoError(t, err)

	require.NoError(t, svc.Merge(ctx, "cart_s1", "u1"))

	userViews, err := svc.ListItems(ctx, user)
	require.NoError(t, err)
	require.Len(t, userViews, 2)

	sessionViews, err := svc.ListItems(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, sessionViews)
}

func TestMergeStopsAtFirstMatchAndClearsRest(t *testing.T) {
	svc, store := newTestService(t)
	seedProduct(t, store, "pA", 10, 100)
	seedProduct(t, store, "pB", 20, 100)
	seedProduct(t, store, "pC", 30, 100)
	ctx := context.Background()

	session := domain.SessionIdentity("cart_s1")
	user := domain.UserIdentity("u1")

	// Session lines in insertion order: B (no match), A (match), C (dropped).
	_, err := svc.AddItem(ctx, session, "pB", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, session, "pA", 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, session, "pC", 4)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, user, "pA", 3)
	require.NoError(t, err)

	require.NoError(t, svc.Merge(ctx, "cart_s1", "u1"))

	userViews, err := svc.ListItems(ctx, user)
	require.NoError(t, err)
	quantities := map[string]int{}
	for _, v := range userViews {
		quantities[v.ProductID] = v.Quantity
	}
	assert.Equal(t, map[string]int{"pA": 5, "pB": 1}, quantities)

	sessionViews, err := svc.ListItems(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, sessionViews)
}

func TestMergeIsIdempotent(t *testing.T) {
	svc, store := newTestService(t)
	seedProduct(t, store, "pA", 10, 100)
	ctx := context.Background()

	session := domain.SessionIdentity("cart_s1")
	user := domain.UserIdentity("u1")

	_, err := svc.AddItem(ctx, session, "pA", 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, user, "pA", 1)
	require.NoError(t, err)

	require.NoError(t, svc.Merge(ctx, "cart_s1", "u1"))
	require.NoError(t, svc.Merge(ctx, "cart_s1", "u1"))

	userViews, err := svc.ListItems(ctx, user)
	require.NoError(t, err)
	require.Len(t, userViews, 1)
	assert.Equal(t, 3, userViews[0].Quantity)
}

func TestMergeEmptySessionIsNoOp(t *testing.T) {
	svc, store := newTestService(t)
	seedProduct(t, store, "pA", 10, 100)
	ctx := context.Background()
	user := domain.UserIdentity("u1")

	_, err := svc.AddItem(ctx, user, "pA", 1)
	require.NoError(t, err)

	require.NoError(t, svc.Merge(ctx, "cart_never_used", "u1"))

	userViews, err := svc.ListItems(ctx, user)
	require.NoError(t, err)
	require.Len(t, userViews, 1)
	assert.Equal(t, 1, userViews[0].Quantity)
}

func TestMergeRequiresBothIdentities(t *testing.T) {
	svc, _ := newTestService(t)
	assert.ErrorIs(t, svc.Merge(context.Background(), "", "u1"), domain.ErrIdentityRequired)
	assert.ErrorIs(t, svc.Merge(context.Background(), "cart_s1", ""), domain.ErrIdentityRequired)
}
