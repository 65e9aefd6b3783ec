package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func TestDay(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	in := time.Date(2024, 3, 15, 16, 30, 45, 123, loc)
	got := Day(in)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	good := []Bar{
		{Ticker: "AAA", Date: day("2024-01-02")},
		{Ticker: "AAA", Date: day("2024-01-03")},
		{Ticker: "AAA", Date: day("2024-01-05")},
	}

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, Validate("AAA", good))
	})

	t.Run("empty ok", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, Validate("AAA", nil))
	})

	t.Run("wrong ticker", func(t *testing.T) {
		t.Parallel()
		bars := []Bar{{Ticker: "BBB", Date: day("2024-01-02")}}
		assert.Error(t, Validate("AAA", bars))
	})

	t.Run("duplicate date", func(t *testing.T) {
		t.Parallel()
		bars := []Bar{
			{Ticker: "AAA", Date: day("2024-01-02")},
			{Ticker: "AAA", Date: day("2024-01-02")},
		}
		assert.Error(t, Validate("AAA", bars))
	})

	t.Run("out of order", func(t *testing.T) {
		t.Parallel()
		bars := []Bar{
			{Ticker: "AAA", Date: day("2024-01-03")},
			{Ticker: "AAA", Date: day("2024-01-02")},
		}
		assert.Error(t, Validate("AAA", bars))
	})
}
