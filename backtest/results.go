package backtest

import (
	"fmt"
	"io"
	"sort"
	"time"
)

// Result is the full outcome of one engine run.
type Result struct {
	Start time.Time
	End   time.Time

	StartingCapital float64

	Trades    []Trade
	Open      []Position
	Snapshots []Snapshot

	SkippedBuys int

	// Final ledger state.
	Cash      float64
	Committed float64
	Realized  float64
}

// PrintResult writes a human-readable run report.
func PrintResult(w io.Writer, r *Result, s Summary) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	if !r.Start.IsZero() {
		fmt.Fprintf(w, "Period:          %s .. %s\n",
			r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:          %d\n", s.Trades)
	fmt.Fprintf(w, "Wins:            %d\n", s.Wins)
	fmt.Fprintf(w, "Losses:          %d\n", s.Losses)
	fmt.Fprintf(w, "Win Rate:        %.2f%%\n", s.WinRate*100)
	fmt.Fprintf(w, "Avg PnL:         %.2f%%\n", s.AvgPnLPct)
	fmt.Fprintf(w, "Median PnL:      %.2f%%\n", s.MedianPnLPct)
	fmt.Fprintf(w, "Skipped Buys:    %d\n", r.SkippedBuys)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Capital")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Starting:        %.2f\n", r.StartingCapital)
	fmt.Fprintf(w, "Cash:            %.2f\n", r.Cash)
	fmt.Fprintf(w, "Committed:       %.2f\n", r.Committed)
	fmt.Fprintf(w, "Realized PnL:    %.2f\n", r.Realized)
	fmt.Fprintf(w, "Return:          %.2f%%\n", s.TotalReturnPct)
	fmt.Fprintf(w, "Max Drawdown:    %.2f\n", s.MaxDrawdown)

	if len(r.Open) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Open Positions")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, p := range r.Open {
			fmt.Fprintf(w, "%-8s %-16s entry %s @ %.2f x %.4f\n",
				p.Ticker, p.Strategy, p.EntryDate.Format("2006-01-02"), p.EntryPrice, p.Shares)
		}
	}

	if len(s.ByStrategy) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Per Strategy")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, name := range sortedStrategyNames(s.ByStrategy) {
			ss := s.ByStrategy[name]
			fmt.Fprintf(w, "%-20s trades=%d win=%.2f%% net=%.2f avg=%.2f%%\n",
				name, ss.Trades, ss.WinRate*100, ss.NetPnL, ss.AvgPnLPct)
		}
	}

	fmt.Fprintln(w)
}

func sortedStrategyNames(m map[string]StrategySummary) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
