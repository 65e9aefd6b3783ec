package backtest

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLedger(t *testing.T) {
	t.Parallel()

	t.Run("positive capital", func(t *testing.T) {
		t.Parallel()

		l, err := NewLedger(10_000)
		require.NoError(t, err)
		assert.Equal(t, 10_000.0, l.Cash())
		assert.Equal(t, 0.0, l.Committed())
		assert.Equal(t, 10_000.0, l.Total())
	})

	t.Run("rejects non-positive capital", func(t *testing.T) {
		t.Parallel()

		_, err := NewLedger(0)
		require.Error(t, err)
		_, err = NewLedger(-100)
		require.Error(t, err)
	})
}

func TestLedgerReserveRelease(t *testing.T) {
	t.Parallel()

	l, err := NewLedger(10_000)
	require.NoError(t, err)

	require.NoError(t, l.Reserve(6_000))
	assert.Equal(t, 4_000.0, l.Cash())
	assert.Equal(t, 6_000.0, l.Committed())

	// Freeing the position at a profit returns cost plus pnl to cash.
	require.NoError(t, l.Release(6_000, 300))
	assert.Equal(t, 10_300.0, l.Cash())
	assert.Equal(t, 0.0, l.Committed())
	assert.Equal(t, 300.0, l.Realized())
	assert.Equal(t, 10_300.0, l.Total())
}

func TestLedgerInsufficientFunds(t *testing.T) {
	t.Parallel()

	l, err := NewLedger(1_000)
	require.NoError(t, err)

	err = l.Reserve(1_001)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// A rejected reserve leaves the ledger untouched.
	assert.Equal(t, 1_000.0, l.Cash())
	assert.Equal(t, 0.0, l.Committed())
}

func TestLedgerInvariantViolations(t *testing.T) {
	t.Parallel()

	t.Run("release exceeding committed", func(t *testing.T) {
		t.Parallel()

		l, err := NewLedger(1_000)
		require.NoError(t, err)
		require.NoError(t, l.Reserve(500))

		err = l.Release(600, 0)
		require.ErrorIs(t, err, ErrLedgerInvariant)
	})

	t.Run("non-positive reserve", func(t *testing.T) {
		t.Parallel()

		l, err := NewLedger(1_000)
		require.NoError(t, err)

		require.ErrorIs(t, l.Reserve(0), ErrLedgerInvariant)
		require.ErrorIs(t, l.Reserve(-5), ErrLedgerInvariant)
	})
}

// Conservation: cash + committed always equals starting + realized, across an
// arbitrary (valid) sequence of reserves and releases.
func TestLedgerConservation(t *testing.T) {
	t.Parallel()

	l, err := NewLedger(50_000)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	type pos struct{ cost float64 }
	var open []pos

	for i := 0; i < 500; i++ {
		if rng.Float64() < 0.5 && l.Cash() > 100 {
			cost := 100 + rng.Float64()*(l.Cash()-100)
			require.NoError(t, l.Reserve(cost))
			open = append(open, pos{cost: cost})
		} else if len(open) > 0 {
			p := open[0]
			open = open[1:]
			pnl := (rng.Float64() - 0.45) * p.cost * 0.2
			require.NoError(t, l.Release(p.cost, pnl))
		}

		assert.InDelta(t, l.Starting()+l.Realized(), l.Cash()+l.Committed(), 1e-6)
		assert.GreaterOrEqual(t, l.Cash(), -1e-6)
	}
}

func TestLedgerClone(t *testing.T) {
	t.Parallel()

	l, err := NewLedger(10_000)
	require.NoError(t, err)
	require.NoError(t, l.Reserve(2_000))

	cp := l.Clone()
	require.NoError(t, cp.Reserve(3_000))

	assert.Equal(t, 8_000.0, l.Cash(), "clone mutation must not touch the original")
	assert.Equal(t, 5_000.0, cp.Cash())
}

func TestRebuildLedger(t *testing.T) {
	t.Parallel()

	exit := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	trades := []Trade{
		{Ticker: "AAA", Strategy: "s1", ExitDate: exit, PnL: 500},
		{Ticker: "BBB", Strategy: "s1", ExitDate: exit, PnL: -200},
	}
	open := []Position{
		{Ticker: "CCC", Strategy: "s1", EntryPrice: 50, Shares: 40}, // cost 2000
	}

	l, err := RebuildLedger(10_000, trades, open)
	require.NoError(t, err)

	assert.InDelta(t, 300.0, l.Realized(), 1e-9)
	assert.InDelta(t, 2_000.0, l.Committed(), 1e-9)
	assert.InDelta(t, 8_300.0, l.Cash(), 1e-9)
	assert.InDelta(t, 10_300.0, l.Total(), 1e-9)
}
