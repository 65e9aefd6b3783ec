package market

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteSource reads daily bars from a SQLite database. The engine only needs
// read access; writing bars is the data-acquisition pipeline's job.
//
// Expected table:
//
//	CREATE TABLE bars (
//		ticker TEXT NOT NULL,
//		date   DATETIME NOT NULL,
//		open   REAL NOT NULL,
//		high   REAL NOT NULL,
//		low    REAL NOT NULL,
//		close  REAL NOT NULL,
//		volume REAL NOT NULL,
//		PRIMARY KEY (ticker, date)
//	);
type SQLiteSource struct {
	db *sql.DB
}

var _ BarSource = (*SQLiteSource)(nil)

func NewSQLiteSource(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("market: open bar db: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) ListTickers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT ticker FROM bars ORDER BY ticker`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

func (s *SQLiteSource) ReadBars(ctx context.Context, ticker string, start, end time.Time) ([]Bar, error) {
	// NoData must be distinguishable from an empty range, so check the
	// ticker exists before applying the range filter.
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bars WHERE ticker = ?`, ticker).Scan(&n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
	}

	q := `SELECT ticker, date, open, high, low, close, volume
		FROM bars WHERE ticker = ?`
	args := []any{ticker}
	if !start.IsZero() {
		q += ` AND date >= ?`
		args = append(args, start)
	}
	if !end.IsZero() {
		q += ` AND date <= ?`
		args = append(args, end)
	}
	q += ` ORDER BY date ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bars := []Bar{}
	for rows.Next() {
		var b Bar
		if err := rows.Scan(&b.Ticker, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Date = Day(b.Date)
		bars = append(bars, b)
	}
	return bars, rows.Err()
}
