package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrail/backsim/market"
	"github.com/quantrail/backsim/strategy"
)

func TestActiveBuyAlertsEmpty(t *testing.T) {
	t.Parallel()

	led, err := NewLedger(10_000)
	require.NoError(t, err)

	alerts := ActiveBuyAlerts(testConfig(), day("2024-01-02"), nil, nil, led, nil)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)

	signals := []strategy.Signal{buy("AAA", "sma", "2024-01-02", 100)}

	alerts = ActiveBuyAlerts(testConfig(), day("2024-01-02"), signals, nil, nil, nil)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)

	// No trading day at all means nothing can be actionable.
	alerts = ActiveBuyAlerts(testConfig(), time.Time{}, signals, nil, led, nil)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestActiveBuyAlertsAsOfDayOnly(t *testing.T) {
	t.Parallel()

	led, err := NewLedger(10_000)
	require.NoError(t, err)

	signals := []strategy.Signal{
		buy("OLD", "sma", "2024-01-02", 100),
		buy("NEW", "sma", "2024-01-05", 50),
	}

	alerts := ActiveBuyAlerts(testConfig(), day("2024-01-05"), signals, nil, led, nil)
	require.Len(t, alerts, 1)
	assert.Equal(t, "NEW", alerts[0].Ticker)
	assert.Equal(t, day("2024-01-05"), alerts[0].Date)
	assert.InDelta(t, 10_000.0, alerts[0].Cost, 1e-6)
	assert.InDelta(t, 200.0, alerts[0].Shares, 1e-9)
}

func TestActiveBuyAlertsStaleSignal(t *testing.T) {
	t.Parallel()

	// Bars continue past the signal's day: the crossover already happened
	// and is history, not an actionable entry.
	bars := map[string][]market.Bar{
		"AAA": {
			testBar("AAA", "2024-01-02", 100, 101, 99, 100),
			testBar("AAA", "2024-01-09", 104, 105, 103, 104),
			testBar("AAA", "2024-01-10", 105, 106, 104, 105),
		},
	}
	signals := []strategy.Signal{buy("AAA", "sma", "2024-01-02", 100)}

	events, dataErrs := BuildSchedule(bars, signals)
	require.Empty(t, dataErrs)
	asOf := LatestBarDate(events)
	assert.Equal(t, day("2024-01-10"), asOf)

	led, err := NewLedger(10_000)
	require.NoError(t, err)

	alerts := ActiveBuyAlerts(testConfig(), asOf, signals, nil, led, nil)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestActiveBuyAlertsCapitalContention(t *testing.T) {
	t.Parallel()

	led, err := NewLedger(10_000)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Sizing = Sizing{Rule: SizeFixedFraction, Fraction: 0.6}

	signals := []strategy.Signal{
		buy("BBB", "sma", "2024-01-05", 50),
		buy("AAA", "sma", "2024-01-05", 100),
	}

	alerts := ActiveBuyAlerts(cfg, day("2024-01-05"), signals, nil, led, nil)
	// Same contention rule as the engine: AAA wins the 6000, BBB is dropped.
	require.Len(t, alerts, 1)
	assert.Equal(t, "AAA", alerts[0].Ticker)

	// The real ledger is untouched.
	assert.InDelta(t, 10_000.0, led.Cash(), 1e-6)
	assert.InDelta(t, 0.0, led.Committed(), 1e-6)
}

func TestActiveBuyAlertsSellFreesCapital(t *testing.T) {
	t.Parallel()

	open := []Position{{
		Ticker:     "AAA",
		Strategy:   "sma",
		EntryDate:  day("2024-01-02"),
		EntryPrice: 100,
		Shares:     100,
	}}
	led, err := RebuildLedger(10_000, nil, open)
	require.NoError(t, err)
	require.InDelta(t, 0.0, led.Cash(), 1e-6)

	cfg := testConfig()
	signals := []strategy.Signal{
		buy("BBB", "ema", "2024-01-05", 50),
		sell("AAA", "sma", "2024-01-05", 110),
	}

	alerts := ActiveBuyAlerts(cfg, day("2024-01-05"), signals, open, led, nil)
	// The same-day SELL replays first and frees 11000 on the clone, so the
	// BUY is actionable.
	require.Len(t, alerts, 1)
	assert.Equal(t, "BBB", alerts[0].Ticker)
	assert.InDelta(t, 11_000.0, alerts[0].Cost, 1e-6)

	assert.InDelta(t, 10_000.0, led.Committed(), 1e-6)
	assert.InDelta(t, 0.0, led.Cash(), 1e-6)
}

func TestActiveBuyAlertsSkipsHeldPair(t *testing.T) {
	t.Parallel()

	open := []Position{{
		Ticker:     "AAA",
		Strategy:   "sma",
		EntryPrice: 10,
		Shares:     10,
	}}
	led, err := RebuildLedger(10_000, nil, open)
	require.NoError(t, err)

	signals := []strategy.Signal{
		buy("AAA", "sma", "2024-01-05", 12),
		buy("AAA", "ema", "2024-01-05", 12),
	}

	alerts := ActiveBuyAlerts(testConfig(), day("2024-01-05"), signals, open, led, nil)
	require.Len(t, alerts, 1)
	assert.Equal(t, "ema", alerts[0].Strategy)
}

func TestActiveBuyAlertsDropsBadPrice(t *testing.T) {
	t.Parallel()

	led, err := NewLedger(10_000)
	require.NoError(t, err)

	signals := []strategy.Signal{buy("AAA", "sma", "2024-01-05", 0)}
	alerts := ActiveBuyAlerts(testConfig(), day("2024-01-05"), signals, nil, led, nil)
	assert.Empty(t, alerts)
}
