// Package config loads and validates the YAML run configuration. All
// validation happens here, before the engine starts; the engine never sees an
// invalid value mid-run.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quantrail/backsim/backtest"
	"github.com/quantrail/backsim/strategy"
)

// ErrInvalidConfig wraps every validation failure so callers can treat any of
// them as a fatal startup error.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete run configuration.
type Config struct {
	Data       DataConfig       `yaml:"data"`
	Engine     EngineConfig     `yaml:"engine"`
	Strategies []StrategyConfig `yaml:"strategies"`
	Journal    JournalConfig    `yaml:"journal"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DataConfig selects the bar source.
type DataConfig struct {
	Source  string   `yaml:"source"` // "csv" or "sqlite"
	Path    string   `yaml:"path"`
	Tickers []string `yaml:"tickers,omitempty"` // empty means every ticker the source has
	Start   string   `yaml:"start,omitempty"`   // 2006-01-02
	End     string   `yaml:"end,omitempty"`
	Workers int      `yaml:"workers,omitempty"` // signal-generation workers, default 4
}

// EngineConfig holds simulation parameters.
type EngineConfig struct {
	StartingCapital float64      `yaml:"starting_capital"`
	StopLossPct     float64      `yaml:"stop_loss_pct"`
	TakeProfitPct   float64      `yaml:"take_profit_pct"`
	Sizing          SizingConfig `yaml:"sizing"`
	CloseAtEnd      *bool        `yaml:"close_at_end,omitempty"` // default true
}

// SizingConfig selects the position-sizing rule.
type SizingConfig struct {
	Rule     string  `yaml:"rule"` // "fixed_fraction" or "fixed_amount"
	Fraction float64 `yaml:"fraction,omitempty"`
	Amount   float64 `yaml:"amount,omitempty"`
}

// StrategyConfig declares one strategy instance. Type resolves against the
// registry at startup; ID tags the instance's signals and trades.
type StrategyConfig struct {
	ID     string          `yaml:"id"`
	Type   string          `yaml:"type"`
	Params strategy.Params `yaml:"params,omitempty"`
}

// JournalConfig locates persistence outputs.
type JournalConfig struct {
	DBPath    string `yaml:"db_path"`
	TradesCSV string `yaml:"trades_csv,omitempty"` // optional CSV export of the trade ledger
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // debug, info, warn, error; default info
}

// Load reads, parses, and validates the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every startup requirement. The returned error always wraps
// ErrInvalidConfig.
func (c *Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	switch c.Data.Source {
	case "csv", "sqlite":
	default:
		return fail("data.source must be 'csv' or 'sqlite', got %q", c.Data.Source)
	}
	if c.Data.Path == "" {
		return fail("data.path is required")
	}
	if _, err := c.StartDate(); err != nil {
		return fail("data.start: %v", err)
	}
	if _, err := c.EndDate(); err != nil {
		return fail("data.end: %v", err)
	}
	if c.Data.Workers < 0 {
		return fail("data.workers must not be negative")
	}

	if c.Engine.StartingCapital <= 0 {
		return fail("engine.starting_capital must be positive")
	}
	if c.Engine.StopLossPct <= 0 || c.Engine.StopLossPct >= 1 {
		return fail("engine.stop_loss_pct must be in (0, 1)")
	}
	if c.Engine.TakeProfitPct <= 0 {
		return fail("engine.take_profit_pct must be positive")
	}

	switch c.Engine.Sizing.Rule {
	case backtest.SizeFixedFraction:
		if c.Engine.Sizing.Fraction <= 0 || c.Engine.Sizing.Fraction > 1 {
			return fail("engine.sizing.fraction must be in (0, 1]")
		}
	case backtest.SizeFixedAmount:
		if c.Engine.Sizing.Amount <= 0 {
			return fail("engine.sizing.amount must be positive")
		}
	default:
		return fail("engine.sizing.rule must be %q or %q, got %q",
			backtest.SizeFixedFraction, backtest.SizeFixedAmount, c.Engine.Sizing.Rule)
	}

	if len(c.Strategies) == 0 {
		return fail("at least one strategy is required")
	}
	seen := map[string]bool{}
	for i, sc := range c.Strategies {
		if sc.ID == "" {
			return fail("strategies[%d].id is required", i)
		}
		if seen[sc.ID] {
			return fail("duplicate strategy id %q", sc.ID)
		}
		seen[sc.ID] = true
		if _, err := strategy.New(sc.Type, sc.ID, sc.Params); err != nil {
			return fail("strategies[%d]: %v", i, err)
		}
	}

	if c.Journal.DBPath == "" {
		return fail("journal.db_path is required")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fail("logging.level must be one of debug, info, warn, error")
	}

	return nil
}

// EngineParams converts the validated configuration into engine parameters.
func (c *Config) EngineParams() backtest.Config {
	closeAtEnd := true
	if c.Engine.CloseAtEnd != nil {
		closeAtEnd = *c.Engine.CloseAtEnd
	}
	return backtest.Config{
		StartingCapital: c.Engine.StartingCapital,
		StopLossPct:     c.Engine.StopLossPct,
		TakeProfitPct:   c.Engine.TakeProfitPct,
		Sizing: backtest.Sizing{
			Rule:     c.Engine.Sizing.Rule,
			Fraction: c.Engine.Sizing.Fraction,
			Amount:   c.Engine.Sizing.Amount,
		},
		CloseAtEnd: closeAtEnd,
	}
}

// BuildStrategies instantiates every configured strategy. Config is already
// validated, so failures here indicate a registry change since validation.
func (c *Config) BuildStrategies() ([]strategy.Strategy, error) {
	out := make([]strategy.Strategy, 0, len(c.Strategies))
	for _, sc := range c.Strategies {
		s, err := strategy.New(sc.Type, sc.ID, sc.Params)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// StartDate parses data.start; zero time when unset.
func (c *Config) StartDate() (time.Time, error) {
	return parseDate(c.Data.Start)
}

// EndDate parses data.end; zero time when unset.
func (c *Config) EndDate() (time.Time, error) {
	return parseDate(c.Data.End)
}

// SignalWorkers returns the configured worker count with its default applied.
func (c *Config) SignalWorkers() int {
	if c.Data.Workers > 0 {
		return c.Data.Workers
	}
	return 4
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
