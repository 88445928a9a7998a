package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"market-dashboard/internal/engine"
	"market-dashboard/internal/feed"
	"market-dashboard/internal/state"
	"market-dashboard/internal/storage"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine reduces synchronously and fans out like the runner does.
type fakeEngine struct {
	mu      sync.Mutex
	current state.State
	snap    feed.Snapshot
	subs    []chan state.State
	stopped bool
}

func newFakeEngine() *fakeEngine {
	s := state.New([]engine.Holding{{Symbol: "AAPL", Shares: 50, AvgPrice: 150, CurrentPrice: 155}}, []string{"AAPL"}, engine.ModeMomentum, "AAPL", 10)
	s = state.Reduce(s, state.Event{Kind: state.MarketTick, Snapshot: feed.Snapshot{Quotes: []engine.Quote{
		{Symbol: "AAPL", Price: 155.67, ChangePercent: 1},
		{Symbol: "AMZN", Price: 3150, ChangePercent: -2},
		{Symbol: "MSFT", Price: 310, ChangePercent: 0.5},
	}}})
	s = state.Reduce(s, state.Event{Kind: state.ScreenerTick, Snapshot: feed.Snapshot{Candidates: []engine.Candidate{
		{Symbol: "NVDA", Momentum: 8, RSI: 65, PERatio: 30, BaseConfidence: 70},
		{Symbol: "KO", Momentum: 1, RSI: 45, PERatio: 12, BaseConfidence: 60},
	}}})
	return &fakeEngine{current: s}
}

func (f *fakeEngine) State() state.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeEngine) LastSnapshot() (feed.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap, !f.snap.Taken.IsZero()
}

func (f *fakeEngine) Dispatch(_ context.Context, ev state.Event) (state.State, error) {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return state.State{}, errors.New("stopped")
	}
	f.current = state.Reduce(f.current, ev)
	s := f.current
	subs := append([]chan state.State(nil), f.subs...)
	f.mu.Unlock()

	for _, ch := range subs {
		ch <- s
	}
	return s, nil
}

func (f *fakeEngine) Subscribe() (<-chan state.State, func()) {
	ch := make(chan state.State, 8)
	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()
	return ch, func() {}
}

type fakeHistory struct {
	records    []storage.ValuationRecord
	summaries  []storage.SummaryRecord
	risk       []storage.RiskRecord
	start, end time.Time
}

func (h *fakeHistory) GetValuations(start, end time.Time) ([]storage.ValuationRecord, error) {
	h.start, h.end = start, end
	return h.records, nil
}

func (h *fakeHistory) GetSummaries(start, end time.Time) ([]storage.SummaryRecord, error) {
	h.start, h.end = start, end
	return h.summaries, nil
}

func (h *fakeHistory) GetRiskInRange(start, end time.Time) ([]storage.RiskRecord, error) {
	h.start, h.end = start, end
	return h.risk, nil
}

func newTestDashboard(t *testing.T, history History) (*Dashboard, *fakeEngine, *httptest.Server) {
	t.Helper()
	eng := newFakeEngine()
	d := NewDashboard(eng, history, nil, 125000, 0)
	srv := httptest.NewServer(d.Handler())
	t.Cleanup(srv.Close)
	return d, eng, srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHandleHealth(t *testing.T) {
	_, _, srv := newTestDashboard(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body healthResponse
	decode(t, resp, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Zero(t, body.FeedErrorRate)
}

func TestHandleState(t *testing.T) {
	_, _, srv := newTestDashboard(t, nil)

	resp, err := http.Get(srv.URL + "/api/state?search=am")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body struct {
		Mode  string `json:"mode"`
		Views struct {
			Market struct {
				Gainers int `json:"gainers"`
			} `json:"market"`
			Watchlist struct {
				Count int `json:"count"`
			} `json:"watchlist"`
			RiskLabel string `json:"riskLabel"`
		} `json:"views"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "momentum", body.Mode)
	assert.Equal(t, 2, body.Views.Market.Gainers)
	assert.Equal(t, 1, body.Views.Watchlist.Count)
	assert.Equal(t, "Conservative", body.Views.RiskLabel)
}

func TestHandleFeed(t *testing.T) {
	_, eng, srv := newTestDashboard(t, nil)

	resp, err := http.Get(srv.URL + "/api/feed")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	eng.mu.Lock()
	eng.snap = feed.Snapshot{Taken: time.Now(), Quotes: []engine.Quote{{Symbol: "AAPL", Price: 1}}}
	eng.mu.Unlock()

	resp, err = http.Get(srv.URL + "/api/feed")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var snap feed.Snapshot
	decode(t, resp, &snap)
	assert.Len(t, snap.Quotes, 1)
}

func TestHandleScreenMode(t *testing.T) {
	_, eng, srv := newTestDashboard(t, nil)

	resp := post(t, srv.URL+"/api/screener/mode", `{"mode":"value"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Mode    string `json:"mode"`
		Results []struct {
			Symbol string `json:"symbol"`
			Signal string `json:"signal"`
		} `json:"results"`
		Signals engine.SignalCounts `json:"signals"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "value", body.Mode)
	require.Len(t, body.Results, 2)
	assert.Equal(t, "KO", body.Results[0].Symbol)
	assert.Equal(t, "buy", body.Results[0].Signal)
	assert.Equal(t, "sell", body.Results[1].Signal)
	assert.Equal(t, engine.ModeValue, eng.State().Mode)

	bad := post(t, srv.URL+"/api/screener/mode", `{"mode":"astrology"}`)
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	malformed := post(t, srv.URL+"/api/screener/mode", `{`)
	assert.Equal(t, http.StatusBadRequest, malformed.StatusCode)
}

func TestHandleFavorite(t *testing.T) {
	_, eng, srv := newTestDashboard(t, nil)

	resp := post(t, srv.URL+"/api/watchlist/favorites/msft", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Favorites []string `json:"favorites"`
		Starred   bool     `json:"starred"`
	}
	decode(t, resp, &body)
	assert.Equal(t, []string{"AAPL", "MSFT"}, body.Favorites)
	assert.True(t, body.Starred)
	assert.Len(t, eng.State().Views.Watchlist.Favorites, 2)
}

func TestHandleSelectSymbol(t *testing.T) {
	_, eng, srv := newTestDashboard(t, nil)

	resp := post(t, srv.URL+"/api/chart/tsla", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "TSLA", eng.State().Selected)
}

func TestHandleTicketEstimate(t *testing.T) {
	_, _, srv := newTestDashboard(t, nil)

	resp := post(t, srv.URL+"/api/ticket/estimate", `{"symbol":"aapl","quantity":50}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var est struct {
		Cost        string `json:"cost"`
		MaxShares   int64  `json:"maxShares"`
		Affordable  bool   `json:"affordable"`
		Description string `json:"description"`
	}
	decode(t, resp, &est)
	assert.Equal(t, "7783.5", est.Cost)
	assert.Equal(t, int64(802), est.MaxShares)
	assert.True(t, est.Affordable)
	assert.Equal(t, "BUY 50 AAPL (MARKET)", est.Description)

	limit := post(t, srv.URL+"/api/ticket/estimate", `{"symbol":"AAPL","quantity":5,"type":"limit"}`)
	assert.Equal(t, http.StatusBadRequest, limit.StatusCode)
	var e map[string]string
	decode(t, limit, &e)
	assert.Equal(t, "please enter limit price", e["error"])

	unknown := post(t, srv.URL+"/api/ticket/estimate", `{"symbol":"ZZZ","quantity":5}`)
	assert.Equal(t, http.StatusNotFound, unknown.StatusCode)
}

func TestHandleValuationHistory(t *testing.T) {
	_, _, srv := newTestDashboard(t, nil)
	resp, err := http.Get(srv.URL + "/api/history/valuations")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	at := time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC)
	history := &fakeHistory{records: []storage.ValuationRecord{{Timestamp: at, Valuation: engine.Valuation{TotalValue: 7750}}}}
	_, _, srv = newTestDashboard(t, history)

	resp, err = http.Get(srv.URL + "/api/history/valuations?from=2026-01-05T14:00:00Z&to=2026-01-05T15:00:00Z")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var records []storage.ValuationRecord
	decode(t, resp, &records)
	require.Len(t, records, 1)
	assert.Equal(t, 7750.0, records[0].Valuation.TotalValue)
	assert.True(t, history.start.Equal(at.Add(-30*time.Minute)))
	assert.True(t, history.end.Equal(at.Add(30*time.Minute)))

	bad, err := http.Get(srv.URL + "/api/history/valuations?from=yesterday")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestHandleSummaryAndRiskHistory(t *testing.T) {
	at := time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC)
	history := &fakeHistory{
		summaries: []storage.SummaryRecord{{Timestamp: at, Summary: engine.Summary{Gainers: 5}}},
	}
	_, _, srv := newTestDashboard(t, history)

	resp, err := http.Get(srv.URL + "/api/history/summaries")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summaries []storage.SummaryRecord
	decode(t, resp, &summaries)
	require.Len(t, summaries, 1)
	assert.Equal(t, 5, summaries[0].Summary.Gainers)
	assert.Equal(t, time.Hour, history.end.Sub(history.start))

	risk, err := http.Get(srv.URL + "/api/history/risk")
	require.NoError(t, err)
	defer risk.Body.Close()
	require.Equal(t, http.StatusOK, risk.StatusCode)
	var records []storage.RiskRecord
	decode(t, risk, &records)
	assert.Empty(t, records)
	assert.NotNil(t, records)
}

func TestHandleHistoryReport(t *testing.T) {
	at := time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC)
	history := &fakeHistory{records: []storage.ValuationRecord{
		{Timestamp: at, Valuation: engine.Valuation{TotalValue: 100}},
		{Timestamp: at.Add(3 * time.Second), Valuation: engine.Valuation{TotalValue: 80}},
		{Timestamp: at.Add(6 * time.Second), Valuation: engine.Valuation{TotalValue: 110}},
	}}
	_, _, srv := newTestDashboard(t, history)

	resp, err := http.Get(srv.URL + "/api/history/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report map[string]any
	decode(t, resp, &report)
	assert.Equal(t, 3.0, report["samples"])
	assert.InDelta(t, 20.0, report["max_drawdown"], 1e-9)
	assert.InDelta(t, 10.0, report["change"], 1e-9)
	assert.NotContains(t, report, "points")

	empty := &fakeHistory{}
	_, _, srv = newTestDashboard(t, empty)
	none, err := http.Get(srv.URL + "/api/history/report")
	require.NoError(t, err)
	none.Body.Close()
	assert.Equal(t, http.StatusNotFound, none.StatusCode)
}

func TestWebSocket_InitialAndBroadcast(t *testing.T) {
	d, eng, srv := newTestDashboard(t, nil)
	stop := make(chan struct{})
	go d.clientBroadcaster(stop)
	t.Cleanup(func() { close(stop) })

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var initial struct {
		Favorites []string `json:"favorites"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Equal(t, []string{"AAPL"}, initial.Favorites)

	require.Eventually(t, func() bool {
		d.clientsMu.Lock()
		clients := len(d.clients)
		d.clientsMu.Unlock()
		eng.mu.Lock()
		subs := len(eng.subs)
		eng.mu.Unlock()
		return clients == 1 && subs == 1
	}, time.Second, 5*time.Millisecond)

	_, err = eng.Dispatch(context.Background(), state.Event{Kind: state.FavoriteToggle, Symbol: "TSLA"})
	require.NoError(t, err)

	var pushed struct {
		Favorites []string `json:"favorites"`
	}
	require.NoError(t, conn.ReadJSON(&pushed))
	assert.Equal(t, []string{"AAPL", "TSLA"}, pushed.Favorites)
}

func TestStartStop(t *testing.T) {
	d := NewDashboard(newFakeEngine(), nil, nil, 125000, 0)
	require.NoError(t, d.Start())
	assert.Error(t, d.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, d.Stop(ctx))
	assert.NoError(t, d.Stop(ctx))
}

func TestStartStop_Restart(t *testing.T) {
	eng := newFakeEngine()
	d := NewDashboard(eng, nil, nil, 125000, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < 2; i++ {
		require.NoError(t, d.Start())
		require.NotPanics(t, func() {
			assert.NoError(t, d.Stop(ctx))
		})
	}

	// each start runs its own broadcaster
	assert.Eventually(t, func() bool {
		eng.mu.Lock()
		defer eng.mu.Unlock()
		return len(eng.subs) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestCommands_EngineStopped(t *testing.T) {
	_, eng, srv := newTestDashboard(t, nil)
	eng.mu.Lock()
	eng.stopped = true
	eng.mu.Unlock()

	resp := post(t, srv.URL+"/api/watchlist/favorites/MSFT", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = post(t, srv.URL+"/api/screener/mode", `{"mode":"growth"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
