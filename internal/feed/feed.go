// Package feed produces the mock market snapshots that drive the dashboard.
//
// A Source hands out one Snapshot per call. The dashboard never talks to a
// real exchange: Random generates numbers locally, Remote mirrors another
// dashboard instance and Script replays fixed snapshots for tests.
package feed

import (
	"context"
	"errors"
	"time"

	"market-dashboard/internal/engine"
)

var (
	// ErrExhausted is returned by a Source that has no more snapshots to give.
	ErrExhausted = errors.New("feed exhausted")
	// ErrUnchanged is returned when the source has nothing newer than the
	// snapshot it handed out last. Applying it again would repeat its moves.
	ErrUnchanged = errors.New("feed unchanged")
)

// Source yields the next mock snapshot.
type Source interface {
	Next(ctx context.Context) (Snapshot, error)
}

// Snapshot is one draw of mock data. Holding and chart movements are
// multiplicative factors so that the consumer applies them to its own state.
type Snapshot struct {
	Taken      time.Time           `json:"taken"`
	Quotes     []engine.Quote      `json:"quotes"`
	PriceMoves map[string]float64  `json:"priceMoves"`
	Risk       []engine.RiskMetric `json:"risk"`
	Candidates []engine.Candidate  `json:"candidates"`
	Chart      ChartDraw           `json:"chart"`
}

// ChartDraw carries both a full seed history and a single incremental step.
// The consumer uses Base and History when it has no series yet, Step otherwise.
type ChartDraw struct {
	Base           float64   `json:"base"`
	History        []float64 `json:"history"`
	HistoryVolumes []int64   `json:"historyVolumes"`
	Step           float64   `json:"step"`
	Volume         int64     `json:"volume"`
}
