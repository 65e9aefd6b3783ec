package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quantrail/backsim/config"
	"github.com/quantrail/backsim/market"
)

var rootCmd = &cobra.Command{
	Use:   "backsim",
	Short: "A daily-bar strategy backtester with a persistent trade ledger",
	Long: `Backsim replays historical daily price bars through trading strategies
and produces an auditable record of simulated trades, aggregate performance
metrics, and a list of currently-actionable buy signals.

All strategies trade against one shared capital pool; events are processed in
a single deterministic order, so re-running over the same data reproduces the
same trade ledger.`,
	SilenceUsage: true,
}

var cfgPath string

// Execute runs the root command tree.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "backsim.yaml", "path to YAML config file")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		var err error
		lvl, err = zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.TimeKey = "time"
	return zcfg.Build()
}

func openBarSource(cfg *config.Config) (market.BarSource, func() error, error) {
	switch cfg.Data.Source {
	case "sqlite":
		src, err := market.NewSQLiteSource(cfg.Data.Path)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	case "csv":
		src, err := market.NewCSVSource(cfg.Data.Path)
		if err != nil {
			return nil, nil, err
		}
		return src, func() error { return nil }, nil
	default:
		// Config validation rejects anything else.
		return nil, nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
	}
}

// loadBars reads every requested ticker's bar sequence. The context is the
// run's only external cancellation point: it is consulted before each
// ticker, never mid-sequence, so a stop leaves whole sequences or nothing.
func loadBars(ctx context.Context, cfg *config.Config, src market.BarSource, log *zap.Logger) (map[string][]market.Bar, error) {
	tickers := cfg.Data.Tickers
	if len(tickers) == 0 {
		var err error
		tickers, err = src.ListTickers(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tickers: %w", err)
		}
	}

	start, _ := cfg.StartDate()
	end, _ := cfg.EndDate()

	bars := make(map[string][]market.Bar, len(tickers))
	for _, t := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seq, err := src.ReadBars(ctx, t, start, end)
		if err != nil {
			if errors.Is(err, market.ErrNoData) {
				log.Warn("ticker has no bar data, skipping", zap.String("ticker", t))
				continue
			}
			return nil, fmt.Errorf("read bars for %s: %w", t, err)
		}
		if len(seq) == 0 {
			log.Info("ticker has no bars in range, skipping", zap.String("ticker", t))
			continue
		}
		bars[t] = seq
	}
	return bars, nil
}
