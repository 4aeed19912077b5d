package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopd/internal/domain/cart"
	"shopd/internal/domain/order"
	"shopd/internal/domain/payment"
	"shopd/internal/domain/product"
)

func seedCheckout(t *testing.T, s *Store, orderID string, decQty int) {
	t.Helper()
	ctx := context.Background()

	o, err := order.New(orderID, "u1", 40, "cs_"+orderID)
	require.NoError(t, err)
	item, err := order.NewItem("it_"+orderID, orderID, "p1", 20, decQty)
	require.NoError(t, err)
	pay, err := payment.New("pay_"+orderID, orderID, "stripe", "cs_"+orderID)
	require.NoError(t, err)

	require.NoError(t, s.CreateCheckout(ctx, o, []*order.Item{item}, pay))
}

func TestApplyConfirmAppliesAllWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	p, err := product.New("p1", "widget", 20, 10)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, p))

	identity := cart.UserIdentity("u1")
	line, err := cart.NewLine("l1", identity, "p1", 2)
	require.NoError(t, err)
	require.NoError(t, s.InsertLine(ctx, line))

	seedCheckout(t, s, "o1", 2)

	require.NoError(t, s.ApplyConfirm(ctx, order.ConfirmUpdate{
		OrderID:       "o1",
		Decrements:    []order.StockDecrement{{ProductID: "p1", Quantity: 2}},
		ClearIdentity: identity,
	}))

	got, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 8, got.Stock)

	entity, err := s.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusInProcess, entity.Status)

	pay, err := s.FindByOrderID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, pay.Status)

	lines, err := s.ListLines(ctx, identity)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestApplyConfirmIsAllOrNothing(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	p1, err := product.New("p1", "widget", 20, 10)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, p1))
	p2, err := product.New("p2", "gadget", 5, 1)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, p2))

	identity := cart.UserIdentity("u1")
	line, err := cart.NewLine("l1", identity, "p1", 2)
	require.NoError(t, err)
	require.NoError(t, s.InsertLine(ctx, line))

	seedCheckout(t, s, "o1", 2)

	// The second decrement exceeds p2's stock; the first must not stick.
	err = s.ApplyConfirm(ctx, order.ConfirmUpdate{
		OrderID: "o1",
		Decrements: []order.StockDecrement{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 3},
		},
		ClearIdentity: identity,
	})
	require.ErrorIs(t, err, product.ErrInsufficientStock)

	got, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)

	entity, err := s.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, entity.Status)

	pay, err := s.FindByOrderID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, pay.Status)

	lines, err := s.ListLines(ctx, identity)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestApplyConfirmUnknownProduct(t *testing.T) {
	s := NewStore()
	seedCheckout(t, s, "o1", 1)

	err := s.ApplyConfirm(context.Background(), order.ConfirmUpdate{
		OrderID:    "o1",
		Decrements: []order.StockDecrement{{ProductID: "ghost", Quantity: 1}},
	})
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestFindBySessionID(t *testing.T) {
	s := NewStore()
	seedCheckout(t, s, "o1", 1)

	entity, err := s.FindBySessionID(context.Background(), "cs_o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", entity.ID)

	_, err = s.FindBySessionID(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestListOrdersNewestFirstPaginated(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"o1", "o2", "o3"} {
		seedCheckout(t, s, id, 1)
	}

	orders, total, err := s.ListOrders(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, orders, 2)
	assert.Equal(t, "o3", orders[0].ID)
	assert.Equal(t, "o2", orders[1].ID)

	orders, _, err = s.ListOrders(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].ID)

	orders, _, err = s.ListOrders(context.Background(), 5, 2)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestFindLineMissingReturnsNotFound(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	identity := cart.SessionIdentity("cart_s1")

	_, err := s.FindLine(ctx, identity, "p1")
	require.ErrorIs(t, err, cart.ErrNotFound)

	line, err := cart.NewLine("l1", identity, "p1", 2)
	require.NoError(t, err)
	require.NoError(t, s.InsertLine(ctx, line))

	found, err := s.FindLine(ctx, identity, "p1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "l1", found.ID)

	// Same product under a different identity is still a miss.
	_, err = s.FindLine(ctx, cart.UserIdentity("u1"), "p1")
	assert.ErrorIs(t, err, cart.ErrNotFound)
}

func TestRekeyLineMovesIdentity(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	session := cart.SessionIdentity("cart_s1")
	user := cart.UserIdentity("u1")
	line, err := cart.NewLine("l1", session, "p1", 2)
	require.NoError(t, err)
	require.NoError(t, s.InsertLine(ctx, line))

	require.NoError(t, s.RekeyLine(ctx, "l1", user))

	moved, err := s.FindLine(ctx, user, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, moved.Quantity)

	_, err = s.FindLine(ctx, session, "p1")
	assert.ErrorIs(t, err, cart.ErrNotFound)
}

func TestDeleteExpired(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	old, err := cart.NewLine("l1", cart.SessionIdentity("cart_s1"), "p1", 1)
	require.NoError(t, err)
	old.CreatedAt = time.Now().UTC().Add(-72 * time.Hour)
	require.NoError(t, s.InsertLine(ctx, old))

	fresh, err := cart.NewLine("l2", cart.SessionIdentity("cart_s2"), "p1", 1)
	require.NoError(t, err)
	require.NoError(t, s.InsertLine(ctx, fresh))

	n, err := s.DeleteExpired(ctx, time.Now().UTC().Add(-48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.FindLine(ctx, cart.SessionIdentity("cart_s1"), "p1")
	assert.ErrorIs(t, err, cart.ErrNotFound)
	_, err = s.FindLine(ctx, cart.SessionIdentity("cart_s2"), "p1")
	assert.NoError(t, err)

	// Sweeping again finds nothing; that is not an error.
	n, err = s.DeleteExpired(ctx, time.Now().UTC().Add(-48*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}
