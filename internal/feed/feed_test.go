package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"market-dashboard/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(seed int64) RandomConfig {
	return RandomConfig{
		Symbols:         []string{"AAPL", "GOOGL", "MSFT"},
		ScreenerSymbols: []string{"AAPL", "NVDA"},
		Holdings:        []string{"AAPL", "TSLA"},
		HistoryLength:   20,
		Seed:            seed,
	}
}

func TestRandom_SameSeedSameSnapshot(t *testing.T) {
	ctx := context.Background()
	a, err := NewRandom(testConfig(42)).Next(ctx)
	require.NoError(t, err)
	b, err := NewRandom(testConfig(42)).Next(ctx)
	require.NoError(t, err)

	a.Taken, b.Taken = time.Time{}, time.Time{}
	assert.Equal(t, a, b)
}

func TestRandom_Ranges(t *testing.T) {
	r := NewRandom(testConfig(7))
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		snap, err := r.Next(ctx)
		require.NoError(t, err)

		require.Len(t, snap.Quotes, 3)
		for _, q := range snap.Quotes {
			assert.GreaterOrEqual(t, q.Price, 100.0)
			assert.Less(t, q.Price, 500.0)
			assert.InDelta(t, 0, q.Change, 10)
			assert.InDelta(t, 0, q.ChangePercent, 5)
			assert.GreaterOrEqual(t, q.Volume, int64(0))
			assert.Less(t, q.Volume, int64(10_000_000))
		}

		require.Len(t, snap.PriceMoves, 2)
		for _, m := range snap.PriceMoves {
			assert.InDelta(t, 1, m, 0.01)
		}

		require.Len(t, snap.Risk, len(engine.RiskKinds))
		for i, m := range snap.Risk {
			assert.Equal(t, engine.RiskKinds[i], m.Kind)
			assert.Equal(t, m.Kind.Ceiling(), m.Max)
			assert.Less(t, m.Value, m.Max)
		}

		require.Len(t, snap.Candidates, 2)
		for _, c := range snap.Candidates {
			assert.GreaterOrEqual(t, c.RSI, 30.0)
			assert.Less(t, c.RSI, 70.0)
			assert.InDelta(t, 0, c.Momentum, 10)
			assert.GreaterOrEqual(t, c.BaseConfidence, 50.0)
			assert.Less(t, c.BaseConfidence, 90.0)
			assert.Zero(t, c.MarketCap%1_000_000_000)
		}

		assert.Len(t, snap.Chart.History, 20)
		assert.Len(t, snap.Chart.HistoryVolumes, 20)
		assert.GreaterOrEqual(t, snap.Chart.Base, 150.0)
		assert.InDelta(t, 1, snap.Chart.Step, 0.01)
	}
}

func TestRandom_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRandom(testConfig(1)).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScript(t *testing.T) {
	ctx := context.Background()
	s := NewScript(
		Snapshot{Quotes: []engine.Quote{{Symbol: "A"}}},
		Snapshot{Quotes: []engine.Quote{{Symbol: "B"}}},
	)

	first, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", first.Quotes[0].Symbol)

	second, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", second.Quotes[0].Symbol)

	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, ErrExhausted)

	s.Loop = true
	again, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Quotes[0].Symbol)
}

func TestRemote_Next(t *testing.T) {
	want := Snapshot{
		Quotes: []engine.Quote{{Symbol: "AAPL", Price: 155, Change: 1, ChangePercent: 0.6}},
		Risk:   []engine.RiskMetric{engine.NewRiskMetric(engine.RiskBeta, 1.1)},
		Chart:  ChartDraw{Base: 200, Step: 1.01},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, FeedPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	got, err := NewRemote(srv.URL+"/", time.Second).Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want.Quotes, got.Quotes)
	assert.Equal(t, engine.RiskBeta, got.Risk[0].Kind)
	assert.Equal(t, 2.0, got.Risk[0].Max)
	assert.Equal(t, 1.01, got.Chart.Step)
}

func TestRemote_SameSnapshotTwice(t *testing.T) {
	taken := time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC)
	current := Snapshot{Taken: taken, PriceMoves: map[string]float64{"AAPL": 1.01}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(current)
	}))
	defer srv.Close()

	remote := NewRemote(srv.URL, time.Second)
	ctx := context.Background()

	first, err := remote.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.01, first.PriceMoves["AAPL"])

	_, err = remote.Next(ctx)
	assert.ErrorIs(t, err, ErrUnchanged)
	_, err = remote.Next(ctx)
	assert.ErrorIs(t, err, ErrUnchanged)

	current.Taken = taken.Add(3 * time.Second)
	next, err := remote.Next(ctx)
	require.NoError(t, err)
	assert.True(t, next.Taken.Equal(current.Taken))
}

func TestRemote_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewRemote(srv.URL, time.Second).Next(context.Background())
	assert.Error(t, err)
}
