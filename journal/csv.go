package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/quantrail/backsim/backtest"
)

// ExportTradesCSV dumps trades to a CSV file for spreadsheet analysis.
func ExportTradesCSV(path string, trades []backtest.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"ticker", "strategy", "entry_time", "entry_price",
		"exit_time", "exit_price", "exit_reason",
		"shares", "pnl", "pnl_pct", "holding_days",
	}); err != nil {
		return err
	}

	for _, t := range trades {
		if err := w.Write([]string{
			t.Ticker,
			t.Strategy,
			t.EntryDate.Format(time.RFC3339),
			fcsv(t.EntryPrice),
			t.ExitDate.Format(time.RFC3339),
			fcsv(t.ExitPrice),
			string(t.ExitReason),
			fcsv(t.Shares),
			fcsv(t.PnL),
			fcsv(t.PnLPct),
			strconv.Itoa(t.HoldingDays),
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fcsv(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
