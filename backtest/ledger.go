package backtest

import "fmt"

// epsilon absorbs float64 rounding in the conservation check.
const epsilon = 1e-6

// Ledger is the shared capital accounting for a run: cash available for new
// entries plus capital committed to open positions. It has a single writer,
// the engine's event loop, which mutates it one event at a time; that
// sequential discipline is the correctness mechanism, so the ledger itself
// carries no lock.
//
// Invariant, checked after every mutation:
//
//	cash + committed == starting + realized, and cash >= 0
type Ledger struct {
	starting  float64
	cash      float64
	committed float64
	realized  float64
}

func NewLedger(starting float64) (*Ledger, error) {
	if starting <= 0 {
		return nil, fmt.Errorf("backtest: starting capital must be positive, got %v", starting)
	}
	return &Ledger{starting: starting, cash: starting}, nil
}

// Reserve moves amount from cash to committed for a new position.
// Returns ErrInsufficientFunds when cash cannot cover it; the caller logs and
// drops the entry.
func (l *Ledger) Reserve(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: reserve of %v", ErrLedgerInvariant, amount)
	}
	if amount > l.cash+epsilon {
		return fmt.Errorf("%w: need %.2f, cash %.2f", ErrInsufficientFunds, amount, l.cash)
	}
	l.cash -= amount
	l.committed += amount
	return l.check()
}

// Release returns a closed position's cost basis to cash, adjusted by its
// realized pnl.
func (l *Ledger) Release(cost, pnl float64) error {
	if cost > l.committed+epsilon {
		return fmt.Errorf("%w: release %.2f exceeds committed %.2f", ErrLedgerInvariant, cost, l.committed)
	}
	l.committed -= cost
	l.cash += cost + pnl
	l.realized += pnl
	return l.check()
}

func (l *Ledger) check() error {
	if l.cash < -epsilon {
		return fmt.Errorf("%w: cash %.6f below zero", ErrLedgerInvariant, l.cash)
	}
	want := l.starting + l.realized
	got := l.cash + l.committed
	if diff := got - want; diff > epsilon || diff < -epsilon {
		return fmt.Errorf("%w: cash+committed %.6f != starting+realized %.6f", ErrLedgerInvariant, got, want)
	}
	return nil
}

func (l *Ledger) Cash() float64      { return l.cash }
func (l *Ledger) Committed() float64 { return l.committed }
func (l *Ledger) Realized() float64  { return l.realized }
func (l *Ledger) Starting() float64  { return l.starting }

// Total is the current total capital: cash plus committed, which equals
// starting capital plus cumulative realized pnl.
func (l *Ledger) Total() float64 { return l.cash + l.committed }

// Clone returns a disposable copy. The alert filter re-evaluates entries on a
// clone so the real ledger is never touched outside the event loop.
func (l *Ledger) Clone() *Ledger {
	cp := *l
	return &cp
}

// RebuildLedger reconstructs ledger state from persisted history: realized
// pnl from closed trades, then the committed cost basis of each open
// position. Used when a run resumes or when alerts are computed offline.
func RebuildLedger(starting float64, trades []Trade, open []Position) (*Ledger, error) {
	l, err := NewLedger(starting)
	if err != nil {
		return nil, err
	}
	for _, t := range trades {
		l.cash += t.PnL
		l.realized += t.PnL
	}
	if err := l.check(); err != nil {
		return nil, err
	}
	for _, p := range open {
		if err := l.Reserve(p.EntryPrice * p.Shares); err != nil {
			return nil, fmt.Errorf("rebuild ledger: %s/%s: %w", p.Ticker, p.Strategy, err)
		}
	}
	return l, nil
}
