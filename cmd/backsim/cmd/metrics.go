package cmd

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantrail/backsim/backtest"
	"github.com/quantrail/backsim/config"
	"github.com/quantrail/backsim/journal"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Recompute performance metrics from the persisted trade ledger",
	Long: `Metrics reads the trade ledger from the journal and recomputes the
standardized summary. The summary is always derived from trades on demand;
it is never stored as authoritative state.`,
	RunE: runMetrics,
}

var (
	mStrategy string
	mStart    string
	mEnd      string
)

func init() {
	rootCmd.AddCommand(metricsCmd)

	metricsCmd.Flags().StringVarP(&mStrategy, "strategy", "s", "", "restrict to one strategy id")
	metricsCmd.Flags().StringVar(&mStart, "start", "", "earliest exit date (YYYY-MM-DD)")
	metricsCmd.Flags().StringVar(&mEnd, "end", "", "latest exit date (YYYY-MM-DD)")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	f := backtest.Filter{Strategy: mStrategy}
	if f.Start, err = parseFlagDate(mStart); err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	if f.End, err = parseFlagDate(mEnd); err != nil {
		return fmt.Errorf("--end: %w", err)
	}

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	trades, err := j.ListTrades(f)
	if err != nil {
		return err
	}

	if last, ok, err := j.LastRun(); err != nil {
		return err
	} else if ok {
		latest, err := j.LatestTradingDay()
		if err != nil {
			return err
		}
		printLastRun(last, latest)
	}

	s := backtest.Summarize(trades, cfg.Engine.StartingCapital, backtest.Filter{})
	printSummary(s)
	return nil
}

func printLastRun(r journal.Run, latestDay time.Time) {
	w := os.Stdout
	fmt.Fprintln(w, "Last Run")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Run ID:          %s\n", r.ID)
	fmt.Fprintf(w, "Recorded:        %s\n", r.Created.Format("2006-01-02 15:04:05"))
	if !r.Start.IsZero() {
		fmt.Fprintf(w, "Period:          %s .. %s\n",
			r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	}
	fmt.Fprintf(w, "Ending Capital:  %.2f\n", r.EndingCapital)
	if !latestDay.IsZero() {
		fmt.Fprintf(w, "Last Trade Day:  %s\n", latestDay.Format("2006-01-02"))
	}
	fmt.Fprintln(w)
}

func printSummary(s backtest.Summary) {
	w := os.Stdout
	fmt.Fprintln(w, "Trade Ledger Summary")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:          %d\n", s.Trades)
	fmt.Fprintf(w, "Wins:            %d\n", s.Wins)
	fmt.Fprintf(w, "Losses:          %d\n", s.Losses)
	fmt.Fprintf(w, "Win Rate:        %.2f%%\n", s.WinRate*100)
	fmt.Fprintf(w, "Net PnL:         %.2f\n", s.NetPnL)
	fmt.Fprintf(w, "Avg PnL:         %.2f%%\n", s.AvgPnLPct)
	fmt.Fprintf(w, "Median PnL:      %.2f%%\n", s.MedianPnLPct)
	fmt.Fprintf(w, "Max Drawdown:    %.2f\n", s.MaxDrawdown)
	fmt.Fprintf(w, "Total Return:    %.2f%%\n", s.TotalReturnPct)

	if len(s.ByStrategy) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Per Strategy")
		fmt.Fprintln(w, "--------------------------------------------------")
		names := make([]string, 0, len(s.ByStrategy))
		for name := range s.ByStrategy {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ss := s.ByStrategy[name]
			fmt.Fprintf(w, "%-20s trades=%d win=%.2f%% net=%.2f avg=%.2f%%\n",
				name, ss.Trades, ss.WinRate*100, ss.NetPnL, ss.AvgPnLPct)
		}
	}
}

func parseFlagDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
