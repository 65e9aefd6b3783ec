package backtest

import (
	"fmt"
	"sort"
	"time"

	"github.com/quantrail/backsim/market"
	"github.com/quantrail/backsim/strategy"
)

// EventKind separates bar arrivals from signal deliveries. Bars sort before
// signals at the same date: a signal is derived from that day's bar and
// cannot be actionable before the bar is observed.
type EventKind uint8

const (
	BarEvent EventKind = iota
	SignalEvent
)

// Event is one scheduled item in the engine's total order. Exactly one of
// Bar/Signal is meaningful, per Kind.
type Event struct {
	Kind   EventKind
	Bar    market.Bar
	Signal strategy.Signal
}

// BuildSchedule merges per-ticker bar sequences and the flat signal list into
// one globally ordered event sequence.
//
// Order: date ascending; bars before signals on the same date; SELL signals
// before BUY signals (exits free capital before entries consume it); ties
// broken by ticker then strategy id so re-runs replay identically.
//
// A ticker whose bars are not strictly increasing, or with a signal
// referencing a date absent from its bar sequence, is excluded entirely and
// reported as a DataError. Other tickers are unaffected.
func BuildSchedule(bars map[string][]market.Bar, signals []strategy.Signal) ([]Event, []*DataError) {
	var dataErrs []*DataError
	bad := map[string]bool{}
	dates := map[string]map[int64]bool{}

	tickers := make([]string, 0, len(bars))
	for t := range bars {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	for _, t := range tickers {
		if err := market.Validate(t, bars[t]); err != nil {
			bad[t] = true
			dataErrs = append(dataErrs, &DataError{Ticker: t, Reason: err.Error()})
			continue
		}
		seen := make(map[int64]bool, len(bars[t]))
		for _, b := range bars[t] {
			seen[b.Date.Unix()] = true
		}
		dates[t] = seen
	}

	for _, s := range signals {
		if bad[s.Ticker] {
			continue
		}
		seen, ok := dates[s.Ticker]
		if !ok {
			bad[s.Ticker] = true
			dataErrs = append(dataErrs, &DataError{
				Ticker:   s.Ticker,
				Strategy: s.Strategy,
				Date:     s.Date,
				Reason:   "signal for ticker with no bar sequence",
			})
			continue
		}
		if !seen[s.Date.Unix()] {
			bad[s.Ticker] = true
			dataErrs = append(dataErrs, &DataError{
				Ticker:   s.Ticker,
				Strategy: s.Strategy,
				Date:     s.Date,
				Reason:   fmt.Sprintf("signal references date %s with no bar", s.Date.Format("2006-01-02")),
			})
		}
	}

	var events []Event
	for _, t := range tickers {
		if bad[t] {
			continue
		}
		for _, b := range bars[t] {
			events = append(events, Event{Kind: BarEvent, Bar: b})
		}
	}
	for _, s := range signals {
		if bad[s.Ticker] {
			continue
		}
		events = append(events, Event{Kind: SignalEvent, Signal: s})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return eventLess(events[i], events[j])
	})

	return events, dataErrs
}

// LatestBarDate returns the most recent bar date in the schedule, the zero
// time when no bar survived validation. This is the as-of day for alerting.
func LatestBarDate(events []Event) time.Time {
	var latest time.Time
	for _, ev := range events {
		if ev.Kind == BarEvent && ev.Bar.Date.After(latest) {
			latest = ev.Bar.Date
		}
	}
	return latest
}

func (e Event) date() int64 {
	if e.Kind == BarEvent {
		return e.Bar.Date.Unix()
	}
	return e.Signal.Date.Unix()
}

func eventLess(a, b Event) bool {
	if da, db := a.date(), b.date(); da != db {
		return da < db
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Kind == BarEvent {
		return a.Bar.Ticker < b.Bar.Ticker
	}
	sa, sb := a.Signal, b.Signal
	if sa.Side != sb.Side {
		return sa.Side < sb.Side
	}
	if sa.Ticker != sb.Ticker {
		return sa.Ticker < sb.Ticker
	}
	return sa.Strategy < sb.Strategy
}
