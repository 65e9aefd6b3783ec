package strategy

import (
	"fmt"

	"github.com/quantrail/backsim/market"
)

func init() {
	Register("sma-cross", func(id string, p Params) (Strategy, error) {
		return NewSMACross(id, p.Int("fast", 20), p.Int("slow", 50))
	})
}

// SMACross emits a buy when the fast SMA of closes crosses above the slow
// SMA, and a sell when it crosses back below.
type SMACross struct {
	id   string
	fast int
	slow int
}

var _ Strategy = (*SMACross)(nil)

func NewSMACross(id string, fast, slow int) (*SMACross, error) {
	if fast <= 0 || slow <= 0 {
		return nil, fmt.Errorf("sma-cross: periods must be positive (fast=%d slow=%d)", fast, slow)
	}
	if fast >= slow {
		return nil, fmt.Errorf("sma-cross: fast period %d must be below slow period %d", fast, slow)
	}
	return &SMACross{id: id, fast: fast, slow: slow}, nil
}

func (s *SMACross) Name() string { return s.id }

func (s *SMACross) GenerateSignals(ticker string, bars []market.Bar) ([]Signal, error) {
	fast := NewSMA(s.fast)
	slow := NewSMA(s.slow)

	var (
		signals  []Signal
		lastDiff float64
		haveDiff bool
	)

	for _, b := range bars {
		fast.Update(b.Close)
		slow.Update(b.Close)
		if !slow.Ready() {
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

		if bullCross {
			signals = append(signals, Signal{
				Ticker:   ticker,
				Strategy: s.id,
				Date:     b.Date,
				Side:     Buy,
				Price:    b.Close,
			})
		} else if bearCross {
			signals = append(signals, Signal{
				Ticker:   ticker,
				Strategy: s.id,
				Date:     b.Date,
				Side:     Sell,
				Price:    b.Close,
			})
		}
	}

	return signals, nil
}
