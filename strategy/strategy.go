// Package strategy defines the signal contract between strategies and the
// backtest engine, and a registry of built-in strategy implementations.
package strategy

import (
	"fmt"
	"sort"
	"time"

	"github.com/quantrail/backsim/market"
)

// Side is the direction of a signal. Sell sorts before Buy so that, at equal
// timestamps, exits free capital before new entries consume it.
type Side uint8

const (
	Sell Side = iota
	Buy
)

func (s Side) String() string {
	switch s {
	case Sell:
		return "SELL"
	case Buy:
		return "BUY"
	default:
		return fmt.Sprintf("Side(%d)", uint8(s))
	}
}

// Signal is a strategy's buy/sell instruction tied to a specific trading day.
// Price is the reference price, typically that day's close. Date must match a
// bar the strategy was given.
type Signal struct {
	Ticker   string
	Strategy string
	Date     time.Time
	Side     Side
	Price    float64
}

// Params holds per-strategy numeric parameters from configuration.
type Params map[string]float64

// Int returns the parameter as an int, or def when absent.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}

// Float returns the parameter, or def when absent.
func (p Params) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Strategy turns a ticker's bar sequence into signals. Implementations must
// be pure: no I/O, no mutation of the input bars, and every emitted signal
// must reference a date present in bars.
type Strategy interface {
	// Name returns the configured strategy id carried on emitted signals.
	Name() string

	// GenerateSignals scans the full bar sequence for one ticker and
	// returns its signals in date order.
	GenerateSignals(ticker string, bars []market.Bar) ([]Signal, error)
}

// Factory builds a strategy instance from its configured id and parameters.
// It runs at startup; an unknown or invalid parameter set is a config-time
// failure, never a mid-run one.
type Factory func(id string, params Params) (Strategy, error)

var factories = map[string]Factory{}

// Register makes a strategy type available under the given type name.
// Built-ins register themselves in init.
func Register(typ string, f Factory) {
	factories[typ] = f
}

// New resolves a strategy type and builds an instance with the given id.
func New(typ, id string, params Params) (Strategy, error) {
	f, ok := factories[typ]
	if !ok {
		return nil, fmt.Errorf("strategy: unknown type %q (known: %v)", typ, Types())
	}
	return f(id, params)
}

// Types returns the sorted list of registered strategy type names.
func Types() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
