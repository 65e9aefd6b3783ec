package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CSVSource reads daily bars from a directory holding one CSV file per
// ticker, named <TICKER>.csv, with rows:
//
//	date,open,high,low,close,volume
//
// where date is 2006-01-02. A header row is allowed. Empty/short rows are
// skipped.
type CSVSource struct {
	dir string
}

var _ BarSource = (*CSVSource)(nil)

func NewCSVSource(dir string) (*CSVSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("market: open csv dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("market: %s is not a directory", dir)
	}
	return &CSVSource{dir: dir}, nil
}

func (s *CSVSource) ListTickers(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var tickers []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		tickers = append(tickers, strings.TrimSuffix(name, ".csv"))
	}
	sort.Strings(tickers)
	return tickers, nil
}

func (s *CSVSource) ReadBars(_ context.Context, ticker string, start, end time.Time) ([]Bar, error) {
	path := filepath.Join(s.dir, ticker+".csv")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoData, ticker)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	bars := []Bar{}
	sawFirst := false

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("market: read %s: %w", path, err)
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row.
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "date") {
				continue
			}
		}

		b, ok, err := parseBarRow(ticker, row)
		if err != nil {
			return nil, fmt.Errorf("market: %s: %w", path, err)
		}
		if !ok {
			continue
		}
		if !inRange(b.Date, start, end) {
			continue
		}
		bars = append(bars, b)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func parseBarRow(ticker string, row []string) (Bar, bool, error) {
	if len(row) < 6 {
		return Bar{}, false, nil
	}

	ds := strings.TrimSpace(row[0])
	if ds == "" {
		return Bar{}, false, nil
	}
	d, err := time.Parse("2006-01-02", ds)
	if err != nil {
		return Bar{}, false, fmt.Errorf("bad date %q: %w", ds, err)
	}

	vals := make([]float64, 5)
	for i := 1; i < 6; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		if err != nil {
			return Bar{}, false, fmt.Errorf("bad field %q: %w", row[i], err)
		}
		vals[i-1] = v
	}

	return Bar{
		Ticker: ticker,
		Date:   Day(d),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, true, nil
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
