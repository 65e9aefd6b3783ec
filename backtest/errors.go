package backtest

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInsufficientFunds is returned by Ledger.Reserve when available
	// cash cannot cover an allocation. The engine treats it as a skipped
	// entry, not a failure.
	ErrInsufficientFunds = errors.New("backtest: insufficient funds")

	// ErrLedgerInvariant means the cash/committed accounting no longer
	// balances. It should never fire under correct transition logic; when
	// it does, the run aborts rather than continuing on a corrupt ledger.
	ErrLedgerInvariant = errors.New("backtest: ledger invariant violated")
)

// DataError reports malformed input for one ticker: out-of-order or duplicate
// bars, or a signal referencing a date with no bar. The affected ticker is
// excluded from the run; other tickers continue.
type DataError struct {
	Ticker   string
	Strategy string
	Date     time.Time
	Reason   string
}

func (e *DataError) Error() string {
	msg := fmt.Sprintf("data error [%s]", e.Ticker)
	if e.Strategy != "" {
		msg += fmt.Sprintf(" strategy=%s", e.Strategy)
	}
	if !e.Date.IsZero() {
		msg += fmt.Sprintf(" date=%s", e.Date.Format("2006-01-02"))
	}
	return msg + ": " + e.Reason
}
