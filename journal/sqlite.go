package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quantrail/backsim/backtest"
)

// SQLite implements Journal on a single SQLite file.
type SQLite struct {
	db *sql.DB
}

var _ Journal = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// AppendTrades inserts trades inside one transaction, relying on the
// (ticker, strategy, entry_time) primary key to drop re-offered trades from
// resumed runs. Content-keyed dedup, not file-append ordering.
func (j *SQLite) AppendTrades(trades []backtest.Trade) (int, error) {
	tx, err := j.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO trades
		(ticker, strategy, entry_time, entry_price, exit_time, exit_price, exit_reason, shares, pnl, pnl_pct, holding_days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, t := range trades {
		res, err := stmt.Exec(
			t.Ticker, t.Strategy, t.EntryDate, t.EntryPrice,
			t.ExitDate, t.ExitPrice, string(t.ExitReason),
			t.Shares, t.PnL, t.PnLPct, t.HoldingDays,
		)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// SaveOpenPositions replaces the stored open-position set atomically.
func (j *SQLite) SaveOpenPositions(positions []backtest.Position) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM positions`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO positions
		(ticker, strategy, entry_time, entry_price, shares, stop_loss, take_profit)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range positions {
		if _, err := stmt.Exec(
			p.Ticker, p.Strategy, p.EntryDate, p.EntryPrice,
			p.Shares, p.StopLoss, p.TakeProfit,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (j *SQLite) OpenPositions() ([]backtest.Position, error) {
	rows, err := j.db.Query(`
		SELECT ticker, strategy, entry_time, entry_price, shares, stop_loss, take_profit
		FROM positions
		ORDER BY ticker, strategy`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []backtest.Position
	for rows.Next() {
		var p backtest.Position
		if err := rows.Scan(
			&p.Ticker, &p.Strategy, &p.EntryDate, &p.EntryPrice,
			&p.Shares, &p.StopLoss, &p.TakeProfit,
		); err != nil {
			return nil, err
		}
		p.EntryDate = p.EntryDate.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (j *SQLite) RecordRun(r Run) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, start_time, end_time, starting_capital, ending_capital, trades, wins, losses, return_pct, max_drawdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Created, r.Start, r.End,
		r.StartingCapital, r.EndingCapital,
		r.Trades, r.Wins, r.Losses,
		r.ReturnPct, r.MaxDrawdown,
	)
	return err
}

func (j *SQLite) RecordEquity(runID string, snaps []backtest.Snapshot) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO equity (run_id, time, cash, committed, realized)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range snaps {
		if _, err := stmt.Exec(runID, s.Date, s.Cash, s.Committed, s.Realized); err != nil {
			return err
		}
	}

	return tx.Commit()
}
