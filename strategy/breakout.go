package strategy

import (
	"fmt"

	"github.com/quantrail/backsim/market"
)

func init() {
	Register("channel-breakout", func(id string, p Params) (Strategy, error) {
		return NewChannelBreakout(id, p.Int("entry", 55), p.Int("exit", 20))
	})
}

// ChannelBreakout buys when a close breaks above the prior entry-period high
// and sells when a close falls below the prior exit-period low.
type ChannelBreakout struct {
	id          string
	entryPeriod int
	exitPeriod  int
}

var _ Strategy = (*ChannelBreakout)(nil)

func NewChannelBreakout(id string, entry, exit int) (*ChannelBreakout, error) {
	if entry <= 0 || exit <= 0 {
		return nil, fmt.Errorf("channel-breakout: periods must be positive (entry=%d exit=%d)", entry, exit)
	}
	return &ChannelBreakout{id: id, entryPeriod: entry, exitPeriod: exit}, nil
}

func (s *ChannelBreakout) Name() string { return s.id }

func (s *ChannelBreakout) GenerateSignals(ticker string, bars []market.Bar) ([]Signal, error) {
	entry := NewChannel(s.entryPeriod)
	exit := NewChannel(s.exitPeriod)

	var signals []Signal
	long := false

	for _, b := range bars {
		// Channels are built from bars strictly before the current one,
		// otherwise today's high would always "break out" of itself.
		entryReady := entry.Ready()
		exitReady := exit.Ready()
		var entryHigh, exitLow float64
		if entryReady {
			entryHigh = entry.High()
		}
		if exitReady {
			exitLow = exit.Low()
		}
		entry.Update(b.High, b.Low)
		exit.Update(b.High, b.Low)

		if !long && entryReady && b.Close > entryHigh {
			long = true
			signals = append(signals, Signal{
				Ticker:   ticker,
				Strategy: s.id,
				Date:     b.Date,
				Side:     Buy,
				Price:    b.Close,
			})
			continue
		}
		if long && exitReady && b.Close < exitLow {
			long = false
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
