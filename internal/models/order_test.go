package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	userID := uuid.New()

	t.Run("valid", func(t *testing.T) {
		o, err := NewOrder(userID, decimal.RequireFromString("99.99"))
		require.NoError(t, err)
		assert.Equal(t, StateCreated, o.State)
		assert.Equal(t, int64(0), o.Version)
		assert.Equal(t, userID, o.UserID)
		assert.NotEqual(t, uuid.Nil, o.ID)
	})

	t.Run("rejects nil user", func(t *testing.T) {
		_, err := NewOrder(uuid.Nil, decimal.RequireFromString("10"))
		assert.ErrorIs(t, err, ErrInvalidUserID)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		for _, s := range []string{"0", "-1", "-0.01"} {
			_, err := NewOrder(userID, decimal.RequireFromString(s))
			assert.ErrorIs(t, err, ErrInvalidAmount, s)
		}
	})

	t.Run("rejects more than two decimal places", func(t *testing.T) {
		_, err := NewOrder(userID, decimal.RequireFromString("1.999"))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects amounts beyond platform width", func(t *testing.T) {
		_, err := NewOrder(userID, decimal.RequireFromString("1000000000000"))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestStateMachine(t *testing.T) {
	// The only legal edges: CREATED → PAYMENT_PENDING → PAID|FAILED.
	allowed := map[State][]State{
		StateCreated:        {StatePaymentPending},
		StatePaymentPending: {StatePaid, StateFailed},
		StatePaid:           {},
		StateFailed:         {},
	}
	all := []State{StateCreated, StatePaymentPending, StatePaid, StateFailed}

	for from, nexts := range allowed {
		legal := map[State]bool{}
		for _, n := range nexts {
			legal[n] = true
		}
		for _, to := range all {
			assert.Equal(t, legal[to], from.CanTransition(to), "%s → %s", from, to)
		}
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, StateCreated.Terminal())
	assert.False(t, StatePaymentPending.Terminal())
	assert.True(t, StatePaid.Terminal())
	assert.True(t, StateFailed.Terminal())
}
