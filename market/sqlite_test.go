package market

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBarDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bars.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE bars (
		ticker TEXT NOT NULL,
		date   DATETIME NOT NULL,
		open   REAL NOT NULL,
		high   REAL NOT NULL,
		low    REAL NOT NULL,
		close  REAL NOT NULL,
		volume REAL NOT NULL,
		PRIMARY KEY (ticker, date)
	)`)
	require.NoError(t, err)

	ins, err := db.Prepare(`INSERT INTO bars (ticker, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	require.NoError(t, err)
	defer ins.Close()

	rows := []struct {
		ticker string
		date   string
		o, h   float64
		l, c   float64
		v      float64
	}{
		{"AAA", "2024-01-02", 100, 101, 99, 100.5, 15000},
		{"AAA", "2024-01-03", 100.5, 103, 100, 102, 18000},
		{"AAA", "2024-01-04", 102, 102.5, 98, 99, 22000},
		{"BBB", "2024-01-02", 50, 51, 49, 50, 9000},
	}
	for _, r := range rows {
		_, err = ins.Exec(r.ticker, day(r.date), r.o, r.h, r.l, r.c, r.v)
		require.NoError(t, err)
	}
	return path
}

func TestSQLiteSource(t *testing.T) {
	t.Parallel()

	src, err := NewSQLiteSource(newBarDB(t))
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	ctx := context.Background()

	t.Run("list tickers", func(t *testing.T) {
		tickers, err := src.ListTickers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"AAA", "BBB"}, tickers)
	})

	t.Run("read all ordered", func(t *testing.T) {
		bars, err := src.ReadBars(ctx, "AAA", time.Time{}, time.Time{})
		require.NoError(t, err)
		require.Len(t, bars, 3)
		assert.NoError(t, Validate("AAA", bars))
		assert.Equal(t, day("2024-01-02"), bars[0].Date)
		assert.Equal(t, time.UTC, bars[0].Date.Location())
		assert.InDelta(t, 102.0, bars[1].Close, 1e-9)
	})

	t.Run("range filter", func(t *testing.T) {
		bars, err := src.ReadBars(ctx, "AAA", day("2024-01-03"), day("2024-01-04"))
		require.NoError(t, err)
		require.Len(t, bars, 2)
		assert.Equal(t, day("2024-01-03"), bars[0].Date)
	})

	t.Run("empty range is not an error", func(t *testing.T) {
		bars, err := src.ReadBars(ctx, "AAA", day("2025-01-01"), day("2025-12-31"))
		require.NoError(t, err)
		assert.Empty(t, bars)
	})

	t.Run("unknown ticker", func(t *testing.T) {
		_, err := src.ReadBars(ctx, "ZZZ", time.Time{}, time.Time{})
		assert.ErrorIs(t, err, ErrNoData)
	})
}
