package backtest

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/quantrail/backsim/market"
	"github.com/quantrail/backsim/strategy"
)

// ExitReason records why a position closed.
type ExitReason string

const (
	ExitSignal     ExitReason = "SIGNAL"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitEndOfData  ExitReason = "END_OF_DATA"
)

// Sizing rules.
const (
	SizeFixedFraction = "fixed_fraction"
	SizeFixedAmount   = "fixed_amount"
)

// Config holds the validated engine parameters. Validation happens in the
// config package before the engine is built; a bad value here is a bug.
type Config struct {
	StartingCapital float64
	StopLossPct     float64 // e.g. 0.05 places the stop 5% under entry
	TakeProfitPct   float64
	Sizing          Sizing

	// CloseAtEnd force-closes every position still open when the event
	// sequence ends (reason END_OF_DATA), so a standalone backtest always
	// yields one trade per entry. Daily orchestrated runs turn this off
	// and persist open positions for the next run instead.
	CloseAtEnd bool
}

// Sizing selects how much capital one entry commits: a fixed fraction of the
// current total capital, or a fixed currency amount.
type Sizing struct {
	Rule     string
	Fraction float64
	Amount   float64
}

// Allocation returns the cash an entry would commit given current total
// capital.
func (c Config) Allocation(total float64) float64 {
	if c.Sizing.Rule == SizeFixedAmount {
		return c.Sizing.Amount
	}
	return total * c.Sizing.Fraction
}

// Position is an open, capital-committed holding awaiting exit. The engine
// owns it exclusively for its lifetime; presence in the engine's map is what
// OPEN means, and closing converts it to a Trade.
type Position struct {
	Ticker     string
	Strategy   string
	EntryDate  time.Time
	EntryPrice float64
	Shares     float64
	StopLoss   float64
	TakeProfit float64
}

// Trade is the immutable record of a completed entry -> exit cycle. It is
// created once, on close, and never mutated afterward.
type Trade struct {
	Ticker      string
	Strategy    string
	EntryDate   time.Time
	EntryPrice  float64
	ExitDate    time.Time
	ExitPrice   float64
	ExitReason  ExitReason
	Shares      float64
	PnL         float64
	PnLPct      float64
	HoldingDays int
}

// Snapshot captures ledger state right after a trade closes. The sequence of
// snapshots is the equity curve in trade-close order.
type Snapshot struct {
	Date      time.Time
	Cash      float64
	Committed float64
	Realized  float64
}

type pairKey struct {
	Ticker   string
	Strategy string
}

// Engine replays a scheduled event sequence through the per-pair position
// state machine, mutating the shared ledger one event at a time. Strictly
// single-threaded: the sequential pass over events is the correctness
// mechanism for shared-capital accounting.
type Engine struct {
	cfg    Config
	log    *zap.Logger
	ledger *Ledger

	positions map[pairKey]*Position
	trades    []Trade
	snaps     []Snapshot
	lastBar   map[string]market.Bar
	skipped   int
}

func NewEngine(cfg Config, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	led, err := NewLedger(cfg.StartingCapital)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:       cfg,
		log:       log,
		ledger:    led,
		positions: make(map[pairKey]*Position),
		lastBar:   make(map[string]market.Bar),
	}, nil
}

// Ledger exposes the engine's ledger read-only (the alert filter clones it).
func (e *Engine) Ledger() *Ledger { return e.ledger }

// Restore loads OPEN positions persisted by a prior run into the state
// machine and re-reserves their committed capital. Must be called before Run.
func (e *Engine) Restore(open []Position) error {
	for _, p := range open {
		key := pairKey{p.Ticker, p.Strategy}
		if _, dup := e.positions[key]; dup {
			return fmt.Errorf("backtest: restore: duplicate open position for %s/%s", p.Ticker, p.Strategy)
		}
		if err := e.ledger.Reserve(p.EntryPrice * p.Shares); err != nil {
			return fmt.Errorf("backtest: restore %s/%s: %w", p.Ticker, p.Strategy, err)
		}
		cp := p
		e.positions[key] = &cp
	}
	return nil
}

// Run processes the event sequence in order. Each event's transition (state
// change, ledger update, trade append) is atomic with respect to the next
// event. The only error Run returns is a ledger invariant violation, which
// aborts the run; data problems were already filtered into DataErrors by the
// scheduler, and insufficient capital only skips the entry.
func (e *Engine) Run(events []Event) (*Result, error) {
	var start, end time.Time

	for _, ev := range events {
		var err error
		switch ev.Kind {
		case BarEvent:
			if start.IsZero() {
				start = ev.Bar.Date
			}
			end = ev.Bar.Date
			err = e.onBar(ev.Bar)
		case SignalEvent:
			err = e.onSignal(ev.Signal)
		}
		if err != nil {
			return nil, err
		}
	}

	if e.cfg.CloseAtEnd {
		if err := e.closeAll(); err != nil {
			return nil, err
		}
	}

	return &Result{
		Start:           start,
		End:             end,
		StartingCapital: e.cfg.StartingCapital,
		Trades:          e.trades,
		Open:            e.openPositions(),
		Snapshots:       e.snaps,
		SkippedBuys:     e.skipped,
		Cash:            e.ledger.Cash(),
		Committed:       e.ledger.Committed(),
		Realized:        e.ledger.Realized(),
	}, nil
}

// onBar applies exit precedence for every open position on this ticker
// before any same-day signal is seen: stop-loss first, then take-profit.
// Both cannot fire the same day; checking the stop first is the conservative
// policy when a bar spans both levels.
func (e *Engine) onBar(b market.Bar) error {
	e.lastBar[b.Ticker] = b

	for _, key := range e.openKeysFor(b.Ticker) {
		p := e.positions[key]
		switch {
		case b.Low <= p.StopLoss:
			if err := e.closePosition(key, b.Date, p.StopLoss, ExitStopLoss); err != nil {
				return err
			}
		case b.High >= p.TakeProfit:
			if err := e.closePosition(key, b.Date, p.TakeProfit, ExitTakeProfit); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) onSignal(s strategy.Signal) error {
	key := pairKey{s.Ticker, s.Strategy}
	_, open := e.positions[key]

	switch s.Side {
	case strategy.Buy:
		if open {
			// One open position per (ticker, strategy) pair.
			return nil
		}
		return e.openPosition(s)

	case strategy.Sell:
		if !open {
			// Either never entered, or a stop/take already fired off
			// this morning's bar. Either way there is nothing to sell.
			return nil
		}
		return e.closePosition(key, s.Date, s.Price, ExitSignal)
	}
	return nil
}

func (e *Engine) openPosition(s strategy.Signal) error {
	if s.Price <= 0 {
		e.log.Warn("buy signal with non-positive price dropped",
			zap.String("ticker", s.Ticker),
			zap.String("strategy", s.Strategy),
			zap.Time("date", s.Date))
		return nil
	}

	alloc := e.cfg.Allocation(e.ledger.Total())
	if err := e.ledger.Reserve(alloc); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			e.skipped++
			e.log.Info("buy skipped, insufficient capital",
				zap.String("ticker", s.Ticker),
				zap.String("strategy", s.Strategy),
				zap.Time("date", s.Date),
				zap.Float64("needed", alloc),
				zap.Float64("cash", e.ledger.Cash()))
			return nil
		}
		return err
	}

	shares := alloc / s.Price
	e.positions[pairKey{s.Ticker, s.Strategy}] = &Position{
		Ticker:     s.Ticker,
		Strategy:   s.Strategy,
		EntryDate:  s.Date,
		EntryPrice: s.Price,
		Shares:     shares,
		StopLoss:   s.Price * (1 - e.cfg.StopLossPct),
		TakeProfit: s.Price * (1 + e.cfg.TakeProfitPct),
	}
	return nil
}

func (e *Engine) closePosition(key pairKey, date time.Time, price float64, reason ExitReason) error {
	p := e.positions[key]

	cost := p.EntryPrice * p.Shares
	pnl := (price - p.EntryPrice) * p.Shares
	if err := e.ledger.Release(cost, pnl); err != nil {
		return err
	}

	e.trades = append(e.trades, Trade{
		Ticker:      p.Ticker,
		Strategy:    p.Strategy,
		EntryDate:   p.EntryDate,
		EntryPrice:  p.EntryPrice,
		ExitDate:    date,
		ExitPrice:   price,
		ExitReason:  reason,
		Shares:      p.Shares,
		PnL:         pnl,
		PnLPct:      (price/p.EntryPrice - 1) * 100,
		HoldingDays: int(date.Sub(p.EntryDate).Hours() / 24),
	})
	e.snaps = append(e.snaps, Snapshot{
		Date:      date,
		Cash:      e.ledger.Cash(),
		Committed: e.ledger.Committed(),
		Realized:  e.ledger.Realized(),
	})
	delete(e.positions, key)
	return nil
}

// closeAll force-closes remaining positions at their ticker's last seen bar
// close. A restored position whose ticker produced no bars this run stays
// open; there is no price to close it at.
func (e *Engine) closeAll() error {
	keys := make([]pairKey, 0, len(e.positions))
	for key := range e.positions {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Ticker != keys[j].Ticker {
			return keys[i].Ticker < keys[j].Ticker
		}
		return keys[i].Strategy < keys[j].Strategy
	})

	for _, key := range keys {
		last, ok := e.lastBar[key.Ticker]
		if !ok {
			e.log.Warn("no bars seen for restored position, leaving open",
				zap.String("ticker", key.Ticker),
				zap.String("strategy", key.Strategy))
			continue
		}
		if err := e.closePosition(key, last.Date, last.Close, ExitEndOfData); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) openKeysFor(ticker string) []pairKey {
	var keys []pairKey
	for key := range e.positions {
		if key.Ticker == ticker {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Strategy < keys[j].Strategy })
	return keys
}

func (e *Engine) openPositions() []Position {
	out := make([]Position, 0, len(e.positions))
	for _, p := range e.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ticker != out[j].Ticker {
			return out[i].Ticker < out[j].Ticker
		}
		return out[i].Strategy < out[j].Strategy
	})
	return out
}
