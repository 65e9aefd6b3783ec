package strategy

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrail/backsim/market"
)

// stubStrategy emits one buy per bar sequence, or fails on configured tickers.
type stubStrategy struct {
	id   string
	fail map[string]bool
}

func (s *stubStrategy) Name() string { return s.id }

func (s *stubStrategy) GenerateSignals(ticker string, bars []market.Bar) ([]Signal, error) {
	if s.fail[ticker] {
		return nil, errors.New("stub failure")
	}
	if len(bars) == 0 {
		return nil, nil
	}
	last := bars[len(bars)-1]
	return []Signal{{Ticker: ticker, Strategy: s.id, Date: last.Date, Side: Buy, Price: last.Close}}, nil
}

func TestGenerateAll(t *testing.T) {
	t.Parallel()

	bars := map[string][]market.Bar{
		"AAA": closeBars("AAA", 10, 11),
		"BBB": closeBars("BBB", 20, 21),
		"CCC": closeBars("CCC", 30, 31),
	}
	strats := []Strategy{
		&stubStrategy{id: "one"},
		&stubStrategy{id: "two"},
	}

	signals, err := GenerateAll(context.Background(), strats, bars, 4, nil)
	require.NoError(t, err)
	require.Len(t, signals, 6)

	keys := make([]string, len(signals))
	for i, s := range signals {
		keys[i] = s.Strategy + "/" + s.Ticker
	}
	sort.Strings(keys)
	assert.Equal(t, []string{
		"one/AAA", "one/BBB", "one/CCC",
		"two/AAA", "two/BBB", "two/CCC",
	}, keys)
}

func TestGenerateAllSkipsFailingPair(t *testing.T) {
	t.Parallel()

	bars := map[string][]market.Bar{
		"AAA": closeBars("AAA", 10, 11),
		"BBB": closeBars("BBB", 20, 21),
	}
	strats := []Strategy{&stubStrategy{id: "one", fail: map[string]bool{"AAA": true}}}

	signals, err := GenerateAll(context.Background(), strats, bars, 2, nil)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, "BBB", signals[0].Ticker)
}

func TestGenerateAllCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bars := map[string][]market.Bar{"AAA": closeBars("AAA", 10, 11)}
	_, err := GenerateAll(ctx, []Strategy{&stubStrategy{id: "one"}}, bars, 2, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateAllSingleWorkerFloor(t *testing.T) {
	t.Parallel()

	bars := map[string][]market.Bar{"AAA": closeBars("AAA", 10, 11)}
	signals, err := GenerateAll(context.Background(), []Strategy{&stubStrategy{id: "one"}}, bars, 0, nil)
	require.NoError(t, err)
	assert.Len(t, signals, 1)
}
