package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(t *testing.T) *Order {
	t.Helper()
	o, err := New("o1", "u1", 42.50, "cs_1")
	require.NoError(t, err)
	return o
}

func TestOrdinaryLifecycle(t *testing.T) {
	o := newOrder(t)
	assert.Equal(t, StatusPending, o.Status)

	require.NoError(t, o.MarkInProcess())
	assert.Equal(t, StatusInProcess, o.Status)

	require.NoError(t, o.MarkShipped())
	assert.Equal(t, StatusShipped, o.Status)
}

func TestMarkInProcessOnlyFromPending(t *testing.T) {
	o := newOrder(t)
	require.NoError(t, o.MarkInProcess())

	assert.ErrorIs(t, o.MarkInProcess(), ErrInvalidTransition)

	o2 := newOrder(t)
	assert.ErrorIs(t, o2.MarkShipped(), ErrInvalidTransition, "pending cannot skip to shipped")
}

func TestCancelOutcomes(t *testing.T) {
	o := newOrder(t)
	assert.Equal(t, CancelApplied, o.Cancel())
	assert.Equal(t, StatusCancelled, o.Status)

	assert.Equal(t, CancelAlreadyCancelled, o.Cancel())
	assert.Equal(t, StatusCancelled, o.Status)

	shipped := newOrder(t)
	require.NoError(t, shipped.MarkInProcess())
	require.NoError(t, shipped.MarkShipped())
	assert.Equal(t, CancelAlreadyShipped, shipped.Cancel())
	assert.Equal(t, StatusShipped, shipped.Status)
}

func TestCancelFromInProcess(t *testing.T) {
	o := newOrder(t)
	require.NoError(t, o.MarkInProcess())
	assert.Equal(t, CancelApplied, o.Cancel())
}

func TestSetStatusOverridesAnyTransition(t *testing.T) {
	o := newOrder(t)
	require.Equal(t, CancelApplied, o.Cancel())

	// The administrative override may re-open a terminal order.
	require.NoError(t, o.SetStatus(StatusShipped))
	assert.Equal(t, StatusShipped, o.Status)

	assert.ErrorIs(t, o.SetStatus(Status("exploded")), ErrInvalidStatus)
	assert.Equal(t, StatusShipped, o.Status)
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"pending", "in_process", "shipped", "cancelled"} {
		s, err := ParseStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, Status(valid), s)
	}

	_, err := ParseStatus("unknown")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
