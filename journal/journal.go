// Package journal persists the engine's outputs: the append-only trade
// ledger, open positions carried between runs, run records, and the equity
// curve.
package journal

import (
	"time"

	"github.com/quantrail/backsim/backtest"
)

// Run is one recorded engine invocation.
type Run struct {
	ID      string
	Created time.Time

	Start time.Time
	End   time.Time

	StartingCapital float64
	EndingCapital   float64

	Trades int
	Wins   int
	Losses int

	ReturnPct   float64
	MaxDrawdown float64
}

// Journal is the persistence contract the engine's callers rely on.
// Trade appends must be idempotent: re-running over an extended bar range
// re-offers previously closed trades, and the store must not double-count
// them.
type Journal interface {
	// AppendTrades writes trades keyed by (ticker, strategy, entry date);
	// already-present keys are ignored. Returns the number actually
	// inserted.
	AppendTrades(trades []backtest.Trade) (int, error)

	// SaveOpenPositions replaces the stored open-position set.
	SaveOpenPositions(positions []backtest.Position) error

	// OpenPositions returns the stored open positions, sorted by
	// (ticker, strategy).
	OpenPositions() ([]backtest.Position, error)

	// RecordRun stores one run record.
	RecordRun(r Run) error

	// RecordEquity stores the run's trade-close equity snapshots.
	RecordEquity(runID string, snaps []backtest.Snapshot) error

	Close() error
}
