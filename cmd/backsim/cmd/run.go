package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantrail/backsim/backtest"
	"github.com/quantrail/backsim/config"
	"github.com/quantrail/backsim/id"
	"github.com/quantrail/backsim/journal"
	"github.com/quantrail/backsim/strategy"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the backtest and persist its trade ledger",
	Long: `Run loads bars and strategies from the config file, replays the merged
event sequence through the engine, and appends the resulting trades to the
journal. Open positions from a previous run are restored first; trades
already in the journal are not double-counted on re-runs over extended data.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	src, closeSrc, err := openBarSource(cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	bars, err := loadBars(ctx, cfg, src, log)
	if err != nil {
		return err
	}

	strats, err := cfg.BuildStrategies()
	if err != nil {
		return err
	}

	signals, err := strategy.GenerateAll(ctx, strats, bars, cfg.SignalWorkers(), log)
	if err != nil {
		return err
	}

	events, dataErrs := backtest.BuildSchedule(bars, signals)
	for _, de := range dataErrs {
		log.Warn("ticker excluded", zap.String("ticker", de.Ticker), zap.String("reason", de.Reason))
	}

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	open, err := j.OpenPositions()
	if err != nil {
		return fmt.Errorf("load open positions: %w", err)
	}

	engine, err := backtest.NewEngine(cfg.EngineParams(), log)
	if err != nil {
		return err
	}
	if err := engine.Restore(open); err != nil {
		return err
	}

	res, err := engine.Run(events)
	if err != nil {
		return fmt.Errorf("run aborted: %w", err)
	}

	inserted, err := j.AppendTrades(res.Trades)
	if err != nil {
		return fmt.Errorf("append trades: %w", err)
	}
	if err := j.SaveOpenPositions(res.Open); err != nil {
		return fmt.Errorf("save open positions: %w", err)
	}

	summary := backtest.Summarize(res.Trades, cfg.Engine.StartingCapital, backtest.Filter{})

	runID := id.New()
	rec := journal.Run{
		ID:              runID,
		Created:         time.Now().UTC(),
		Start:           res.Start,
		End:             res.End,
		StartingCapital: res.StartingCapital,
		EndingCapital:   res.Cash + res.Committed,
		Trades:          summary.Trades,
		Wins:            summary.Wins,
		Losses:          summary.Losses,
		ReturnPct:       summary.TotalReturnPct,
		MaxDrawdown:     summary.MaxDrawdown,
	}
	if err := j.RecordRun(rec); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	if err := j.RecordEquity(runID, res.Snapshots); err != nil {
		return fmt.Errorf("record equity: %w", err)
	}

	if cfg.Journal.TradesCSV != "" {
		all, err := j.ListTrades(backtest.Filter{})
		if err != nil {
			return err
		}
		if err := journal.ExportTradesCSV(cfg.Journal.TradesCSV, all); err != nil {
			return fmt.Errorf("export trades csv: %w", err)
		}
	}

	log.Info("run complete",
		zap.String("run_id", runID),
		zap.Int("trades", len(res.Trades)),
		zap.Int("new_trades", inserted),
		zap.Int("open_positions", len(res.Open)),
		zap.Int("skipped_buys", res.SkippedBuys),
		zap.Int("excluded_tickers", len(dataErrs)))

	backtest.PrintResult(os.Stdout, res, summary)
	return nil
}
