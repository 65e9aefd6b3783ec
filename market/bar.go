// Package market defines the daily OHLCV bar type and read-only sources of
// historical bar data.
package market

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoData is returned by a BarSource when a ticker has no bar data at all.
// It is distinct from an empty-but-valid range, which returns a nil error and
// an empty slice.
var ErrNoData = errors.New("market: no data for ticker")

// Bar is one day's OHLCV record for a ticker. Dates are UTC midnight.
// Bars are immutable once produced by a source.
type Bar struct {
	Ticker string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// BarSource provides read-only access to per-ticker bar sequences.
// Implementations must return bars sorted by date ascending.
type BarSource interface {
	// ReadBars returns bars for ticker within [start, end]. A ticker the
	// source has never seen yields ErrNoData; a known ticker with no bars
	// in range yields an empty slice and nil error.
	ReadBars(ctx context.Context, ticker string, start, end time.Time) ([]Bar, error)

	// ListTickers returns all distinct tickers available from the source.
	ListTickers(ctx context.Context) ([]string, error)
}

// Day normalizes t to UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Validate checks that bars form a usable sequence for ticker: every bar
// carries the expected ticker and dates are strictly increasing. Duplicate
// dates are a data error, not a merge candidate.
func Validate(ticker string, bars []Bar) error {
	var prev time.Time
	for i, b := range bars {
		if b.Ticker != ticker {
			return fmt.Errorf("market: bar %d for %s carries ticker %q", i, ticker, b.Ticker)
		}
		if i > 0 && !b.Date.After(prev) {
			return fmt.Errorf("market: bars for %s not strictly increasing at %s", ticker, b.Date.Format("2006-01-02"))
		}
		prev = b.Date
	}
	return nil
}
