package strategy

import (
	"fmt"

	"github.com/quantrail/backsim/market"
)

func init() {
	Register("ema-cross", func(id string, p Params) (Strategy, error) {
		return NewEMACross(id, p.Int("fast", 12), p.Int("slow", 26))
	})
}

// EMACross is the exponential variant of the moving-average crossover.
// EMAs react faster to recent closes than SMAs with the same period, so this
// tends to signal earlier and churn more.
type EMACross struct {
	id   string
	fast int
	slow int
}

var _ Strategy = (*EMACross)(nil)

func NewEMACross(id string, fast, slow int) (*EMACross, error) {
	if fast <= 0 || slow <= 0 {
		return nil, fmt.Errorf("ema-cross: periods must be positive (fast=%d slow=%d)", fast, slow)
	}
	if fast >= slow {
		return nil, fmt.Errorf("ema-cross: fast period %d must be below slow period %d", fast, slow)
	}
	return &EMACross{id: id, fast: fast, slow: slow}, nil
}

func (s *EMACross) Name() string { return s.id }

func (s *EMACross) GenerateSignals(ticker string, bars []market.Bar) ([]Signal, error) {
	fast := NewEMA(s.fast)
	slow := NewEMA(s.slow)

	var (
		signals  []Signal
		lastDiff float64
		haveDiff bool
	)

	for _, b := range bars {
		fast.Update(b.Close)
		slow.Update(b.Close)
		if !fast.Ready() || !slow.Ready() {
			continue
		}

		diff := fast.Value() - slow.Value()
		if !haveDiff {
			lastDiff = diff
			haveDiff = true
			continue
		}

		bullCross := diff > 0 && lastDiff <= 0
		bearCross := diff < 0 && lastDiff >= 0
		lastDiff = diff

		side := Side(0)
		switch {
		case bullCross:
			side = Buy
		case bearCross:
			side = Sell
		default:
			continue
		}

		signals = append(signals, Signal{
			Ticker:   ticker,
			Strategy: s.id,
			Date:     b.Date,
			Side:     side,
			Price:    b.Close,
		})
	}

	return signals, nil
}
