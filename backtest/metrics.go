package backtest

import (
	"sort"
	"time"
)

// Filter narrows Summarize to one strategy and/or an exit-date range.
// The zero Filter keeps everything.
type Filter struct {
	Strategy string
	Start    time.Time
	End      time.Time
}

func (f Filter) keep(t Trade) bool {
	if f.Strategy != "" && t.Strategy != f.Strategy {
		return false
	}
	if !f.Start.IsZero() && t.ExitDate.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && t.ExitDate.After(f.End) {
		return false
	}
	return true
}

// StrategySummary is the per-strategy slice of a Summary.
type StrategySummary struct {
	Trades    int
	Wins      int
	WinRate   float64
	NetPnL    float64
	AvgPnLPct float64
}

// Summary is derived from the trade set on demand and never persisted as
// authoritative state. An empty trade set is valid: everything reports zero.
type Summary struct {
	Trades         int
	Wins           int
	Losses         int
	WinRate        float64
	NetPnL         float64
	AvgPnLPct      float64
	MedianPnLPct   float64
	MaxDrawdown    float64 // largest peak-to-trough decline of cumulative pnl, in currency
	TotalReturnPct float64 // net pnl relative to starting capital
	ByStrategy     map[string]StrategySummary
}

// Summarize computes standardized statistics over the trade set. Drawdown is
// measured on the cumulative-pnl curve in trade-close order, so trades are
// re-sorted by exit date (entry date, ticker, strategy break ties) before
// accumulation.
func Summarize(trades []Trade, startingCapital float64, f Filter) Summary {
	s := Summary{ByStrategy: map[string]StrategySummary{}}

	kept := make([]Trade, 0, len(trades))
	for _, t := range trades {
		if f.keep(t) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return s
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if !a.ExitDate.Equal(b.ExitDate) {
			return a.ExitDate.Before(b.ExitDate)
		}
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.Before(b.EntryDate)
		}
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		return a.Strategy < b.Strategy
	})

	var (
		cum, peak, maxDD float64
		sumPct           float64
		pcts             = make([]float64, 0, len(kept))
	)

	for _, t := range kept {
		s.Trades++
		s.NetPnL += t.PnL
		sumPct += t.PnLPct
		pcts = append(pcts, t.PnLPct)

		if t.PnL > 0 {
			s.Wins++
		} else if t.PnL < 0 {
			s.Losses++
		}

		cum += t.PnL
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > maxDD {
			maxDD = dd
		}

		ss := s.ByStrategy[t.Strategy]
		ss.Trades++
		ss.NetPnL += t.PnL
		ss.AvgPnLPct += t.PnLPct // running sum, divided below
		if t.PnL > 0 {
			ss.Wins++
		}
		s.ByStrategy[t.Strategy] = ss
	}

	s.WinRate = float64(s.Wins) / float64(s.Trades)
	s.AvgPnLPct = sumPct / float64(s.Trades)
	s.MedianPnLPct = median(pcts)
	s.MaxDrawdown = maxDD
	if startingCapital > 0 {
		s.TotalReturnPct = s.NetPnL / startingCapital * 100
	}

	for name, ss := range s.ByStrategy {
		ss.WinRate = float64(ss.Wins) / float64(ss.Trades)
		ss.AvgPnLPct /= float64(ss.Trades)
		s.ByStrategy[name] = ss
	}

	return s
}

func median(xs []float64) float64 {
	sort.Float64s(xs)
	n := len(xs)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}
