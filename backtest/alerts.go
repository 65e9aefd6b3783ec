package backtest

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/quantrail/backsim/strategy"
)

// Alert is an actionable BUY the simulation would actually take today, given
// current ledger state and open positions.
type Alert struct {
	Ticker   string
	Strategy string
	Date     time.Time
	Price    float64
	Shares   float64
	Cost     float64
}

// ActiveBuyAlerts filters the signals scheduled on asOf, the most recent
// trading day the bar data covers, down to BUY entries the state machine
// would accept. A crossover from an earlier day is history, not an alert: if
// asOf carries no signals the result is empty. The day is replayed against a
// disposable ledger clone with the same rules the engine uses — same-day
// SELLs release capital first, entries are sized and reserved in ticker
// order — so alerting cannot diverge from what a real run would do. The real
// ledger is never mutated.
//
// The result is always non-nil; no actionable signals is an empty slice, not
// a failure.
func ActiveBuyAlerts(cfg Config, asOf time.Time, signals []strategy.Signal, open []Position, led *Ledger, log *zap.Logger) []Alert {
	alerts := []Alert{}
	if log == nil {
		log = zap.NewNop()
	}
	if len(signals) == 0 || led == nil || asOf.IsZero() {
		return alerts
	}

	day := make([]strategy.Signal, 0, len(signals))
	for _, s := range signals {
		if s.Date.Equal(asOf) {
			day = append(day, s)
		}
	}
	sort.SliceStable(day, func(i, j int) bool {
		a, b := day[i], day[j]
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		return a.Strategy < b.Strategy
	})

	clone := led.Clone()
	held := make(map[pairKey]Position, len(open))
	for _, p := range open {
		held[pairKey{p.Ticker, p.Strategy}] = p
	}

	for _, s := range day {
		key := pairKey{s.Ticker, s.Strategy}
		switch s.Side {
		case strategy.Sell:
			p, ok := held[key]
			if !ok {
				continue
			}
			cost := p.EntryPrice * p.Shares
			pnl := (s.Price - p.EntryPrice) * p.Shares
			if err := clone.Release(cost, pnl); err != nil {
				// The clone is disposable; a stale position record can
				// only cost us an alert, not ledger state.
				log.Warn("alert filter: release on clone failed",
					zap.String("ticker", s.Ticker),
					zap.String("strategy", s.Strategy),
					zap.Error(err))
				continue
			}
			delete(held, key)

		case strategy.Buy:
			if _, ok := held[key]; ok {
				continue
			}
			if s.Price <= 0 {
				continue
			}
			alloc := cfg.Allocation(clone.Total())
			if err := clone.Reserve(alloc); err != nil {
				continue
			}
			alerts = append(alerts, Alert{
				Ticker:   s.Ticker,
				Strategy: s.Strategy,
				Date:     s.Date,
				Price:    s.Price,
				Shares:   alloc / s.Price,
				Cost:     alloc,
			})
		}
	}

	return alerts
}
