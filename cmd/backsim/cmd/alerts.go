package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantrail/backsim/backtest"
	"github.com/quantrail/backsim/config"
	"github.com/quantrail/backsim/journal"
	"github.com/quantrail/backsim/strategy"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List currently-actionable buy signals",
	Long: `Alerts regenerates signals over the configured data, takes the most
recent trading day's signals, and keeps the BUY entries the engine itself
would accept given the journal's open positions and realized pnl. The real
ledger is reconstructed read-only; nothing is persisted.`,
	RunE: runAlerts,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
}

func runAlerts(cmd *cobra.Command, args []string) error {
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

	// Scheduling validates the data and drops broken tickers, exactly as a
	// real run would.
	events, dataErrs := backtest.BuildSchedule(bars, signals)
	for _, de := range dataErrs {
		log.Warn("ticker excluded", zap.String("ticker", de.Ticker), zap.String("reason", de.Reason))
	}
	scheduled := make([]strategy.Signal, 0, len(signals))
	for _, ev := range events {
		if ev.Kind == backtest.SignalEvent {
			scheduled = append(scheduled, ev.Signal)
		}
	}
	asOf := backtest.LatestBarDate(events)

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	open, err := j.OpenPositions()
	if err != nil {
		return err
	}
	trades, err := j.ListTrades(backtest.Filter{})
	if err != nil {
		return err
	}

	led, err := backtest.RebuildLedger(cfg.Engine.StartingCapital, trades, open)
	if err != nil {
		return fmt.Errorf("rebuild ledger: %w", err)
	}

	alerts := backtest.ActiveBuyAlerts(cfg.EngineParams(), asOf, scheduled, open, led, log)
	if len(alerts) == 0 {
		fmt.Println("No actionable buy signals.")
		return nil
	}

	fmt.Printf("%-10s %-20s %-12s %10s %12s %12s\n",
		"TICKER", "STRATEGY", "DATE", "PRICE", "SHARES", "COST")
	for _, a := range alerts {
		fmt.Printf("%-10s %-20s %-12s %10.2f %12.4f %12.2f\n",
			a.Ticker, a.Strategy, a.Date.Format("2006-01-02"), a.Price, a.Shares, a.Cost)
	}
	return nil
}
