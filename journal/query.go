package journal

import (
	"database/sql"
	"time"

	"github.com/quantrail/backsim/backtest"
)

// ListTrades returns stored trades matching the filter, in trade-close order
// (exit_time, then the composite key), which is the order metrics accumulate
// in.
func (j *SQLite) ListTrades(f backtest.Filter) ([]backtest.Trade, error) {
	q := `SELECT ticker, strategy, entry_time, entry_price, exit_time, exit_price, exit_reason, shares, pnl, pnl_pct, holding_days
		FROM trades WHERE 1=1`
	var args []any
	if f.Strategy != "" {
		q += ` AND strategy = ?`
		args = append(args, f.Strategy)
	}
	if !f.Start.IsZero() {
		q += ` AND exit_time >= ?`
		args = append(args, f.Start)
	}
	if !f.End.IsZero() {
		q += ` AND exit_time <= ?`
		args = append(args, f.End)
	}
	q += ` ORDER BY exit_time, ticker, strategy, entry_time`

	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []backtest.Trade
	for rows.Next() {
		var (
			t      backtest.Trade
			reason string
		)
		if err := rows.Scan(
			&t.Ticker, &t.Strategy, &t.EntryDate, &t.EntryPrice,
			&t.ExitDate, &t.ExitPrice, &reason,
			&t.Shares, &t.PnL, &t.PnLPct, &t.HoldingDays,
		); err != nil {
			return nil, err
		}
		t.ExitReason = backtest.ExitReason(reason)
		t.EntryDate = t.EntryDate.UTC()
		t.ExitDate = t.ExitDate.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// LastRun returns the most recently created run record. The boolean is false
// when no run has been recorded yet.
func (j *SQLite) LastRun() (Run, bool, error) {
	row := j.db.QueryRow(`
		SELECT run_id, created, start_time, end_time, starting_capital, ending_capital, trades, wins, losses, return_pct, max_drawdown
		FROM runs ORDER BY run_id DESC LIMIT 1`)

	var r Run
	err := row.Scan(
		&r.ID, &r.Created, &r.Start, &r.End,
		&r.StartingCapital, &r.EndingCapital,
		&r.Trades, &r.Wins, &r.Losses,
		&r.ReturnPct, &r.MaxDrawdown,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}
	return r, true, nil
}

// LatestTradingDay returns the most recent exit date in the trade ledger,
// the zero time when no trade has been recorded yet.
func (j *SQLite) LatestTradingDay() (time.Time, error) {
	var t time.Time
	row := j.db.QueryRow(`SELECT exit_time FROM trades ORDER BY exit_time DESC LIMIT 1`)
	if err := row.Scan(&t); err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return t.UTC(), nil
}
