package reaper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shopd/internal/domain/cart"
	"shopd/internal/infrastructure/memory"
)

func TestRunSweepsExpiredLines(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	stale, err := cart.NewLine("l1", cart.SessionIdentity("cart_old"), "p1", 1)
	require.NoError(t, err)
	stale.CreatedAt = time.Now().UTC().Add(-49 * time.Hour)
	require.NoError(t, store.InsertLine(ctx, stale))

	fresh, err := cart.NewLine("l2", cart.SessionIdentity("cart_new"), "p1", 1)
	require.NoError(t, err)
	require.NoError(t, store.InsertLine(ctx, fresh))

	r := New(store, 48*time.Hour, 10*time.Millisecond, zap.NewNop())

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		r.Run(runCtx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		_, err := store.FindLine(ctx, cart.SessionIdentity("cart_old"), "p1")
		return err != nil
	}, time.Second, 10*time.Millisecond, "stale line should be reaped")

	cancel()
	<-done

	_, err = store.FindLine(ctx, cart.SessionIdentity("cart_new"), "p1")
	assert.NoError(t, err, "fresh line survives the sweep")
}
