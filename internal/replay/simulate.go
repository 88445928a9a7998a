package replay

import (
	"context"
	"fmt"
	"time"

	"market-dashboard/internal/engine"
	"market-dashboard/internal/feed"
	"market-dashboard/internal/state"
)

// Recorder receives simulated history; storage.Store satisfies it.
type Recorder interface {
	StoreSummary(at time.Time, s engine.Summary) error
	StoreValuation(at time.Time, v engine.Valuation) error
	StoreRisk(at time.Time, a engine.RiskAssessment) error
}

// Simulate drives initial through one market, portfolio and risk tick per
// step in [start, end) and records the derived figures of each step. It
// returns the number of steps recorded.
func Simulate(ctx context.Context, rec Recorder, src feed.Source, initial state.State, start, end time.Time, step time.Duration) (int, error) {
	if step <= 0 {
		return 0, fmt.Errorf("step must be positive, got %s", step)
	}

	s := initial
	count := 0
	for at := start; at.Before(end); at = at.Add(step) {
		snap, err := src.Next(ctx)
		if err != nil {
			return count, fmt.Errorf("snapshot %d: %w", count, err)
		}
		for _, kind := range []state.Kind{state.MarketTick, state.PortfolioTick, state.RiskTick} {
			s = state.Reduce(s, state.Event{Kind: kind, At: at, Snapshot: snap})
		}

		if err := rec.StoreSummary(at, s.Views.Market); err != nil {
			return count, err
		}
		if err := rec.StoreValuation(at, s.Views.Valuation); err != nil {
			return count, err
		}
		if err := rec.StoreRisk(at, s.Views.Risk); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
