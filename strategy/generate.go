package strategy

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/quantrail/backsim/market"
)

// GenerateAll runs every strategy over every ticker's bar sequence and
// collects the resulting signals. Strategies are pure, so this phase is safe
// to parallelize; it finishes before scheduling, which imposes the
// deterministic total order downstream.
//
// The context is consulted only between (strategy, ticker) units. A stop
// leaves already-collected signals intact and returns ctx.Err().
//
// A strategy failing on one ticker skips that (strategy, ticker) pair and is
// logged; other pairs continue.
func GenerateAll(ctx context.Context, strats []Strategy, bars map[string][]market.Bar, workers int, log *zap.Logger) ([]Signal, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}

	type unit struct {
		strat  Strategy
		ticker string
		bars   []market.Bar
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		signals []Signal
	)
	sem := make(chan struct{}, workers)

	for _, s := range strats {
		for ticker, seq := range bars {
			if err := ctx.Err(); err != nil {
				wg.Wait()
				return signals, err
			}

			u := unit{strat: s, ticker: ticker, bars: seq}
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()

				sigs, err := u.strat.GenerateSignals(u.ticker, u.bars)
				if err != nil {
					log.Warn("strategy failed, skipping ticker",
						zap.String("strategy", u.strat.Name()),
						zap.String("ticker", u.ticker),
						zap.Error(err))
					return
				}
				mu.Lock()
				signals = append(signals, sigs...)
				mu.Unlock()
			}()
		}
	}

	wg.Wait()
	return signals, nil
}
