// Package dashboard serves the live dashboard over HTTP. REST endpoints expose
// the current state and accept user commands; a websocket pushes the full
// state to every connected client after each reduction.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"market-dashboard/internal/engine"
	"market-dashboard/internal/feed"
	"market-dashboard/internal/metrics"
	"market-dashboard/internal/replay"
	"market-dashboard/internal/state"
	"market-dashboard/internal/storage"
	"market-dashboard/internal/ticket"
	"market-dashboard/internal/watchlist"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Engine is the live state owner, implemented by runner.Runner.
type Engine interface {
	State() state.State
	LastSnapshot() (feed.Snapshot, bool)
	Dispatch(ctx context.Context, ev state.Event) (state.State, error)
	Subscribe() (<-chan state.State, func())
}

// History answers range queries over recorded ticks, implemented by
// storage.Store.
type History interface {
	replay.Source
	GetSummaries(start, end time.Time) ([]storage.SummaryRecord, error)
	GetRiskInRange(start, end time.Time) ([]storage.RiskRecord, error)
}

// Dashboard is the HTTP and websocket front of the engine.
type Dashboard struct {
	engine         Engine
	history        History
	metricsWrapper *metrics.MetricsWrapper
	accountBalance float64
	addr           string
	server         *http.Server
	router         *mux.Router
	upgrader       websocket.Upgrader
	clients        map[*websocket.Conn]bool
	clientsMu      sync.Mutex
	stopChannel    chan struct{}
	isRunning      bool
	mu             sync.Mutex
}

// NewDashboard wires the routes. history may be nil when recording is off.
func NewDashboard(engine Engine, history History, mw *metrics.MetricsWrapper, accountBalance float64, port int) *Dashboard {
	d := &Dashboard{
		engine:         engine,
		history:        history,
		metricsWrapper: mw,
		accountBalance: accountBalance,
		upgrader:       websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:        make(map[*websocket.Conn]bool),
		addr:           fmt.Sprintf(":%d", port),
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", d.handleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/ws", d.handleWebSocket).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", d.handleState).Methods("GET")
	api.HandleFunc("/feed", d.handleFeed).Methods("GET")
	api.HandleFunc("/screener/mode", d.handleScreenMode).Methods("POST")
	api.HandleFunc("/watchlist/favorites/{symbol}", d.handleFavorite).Methods("POST")
	api.HandleFunc("/chart/{symbol}", d.handleSelectSymbol).Methods("POST")
	api.HandleFunc("/ticket/estimate", d.handleTicketEstimate).Methods("POST")
	api.HandleFunc("/history/valuations", d.handleValuationHistory).Methods("GET")
	api.HandleFunc("/history/summaries", d.handleSummaryHistory).Methods("GET")
	api.HandleFunc("/history/risk", d.handleRiskHistory).Methods("GET")
	api.HandleFunc("/history/report", d.handleHistoryReport).Methods("GET")
	d.router = r
	return d
}

// Handler exposes the router, mainly for tests.
func (d *Dashboard) Handler() http.Handler { return d.router }

// Start starts broadcasting and serving in the background. A stopped
// dashboard can be started again.
func (d *Dashboard) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.isRunning {
		return fmt.Errorf("dashboard is already running")
	}

	// a shut down http.Server cannot serve again
	server := &http.Server{
		Addr:              d.addr,
		Handler:           d.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	d.server = server
	d.stopChannel = make(chan struct{})

	go d.clientBroadcaster(d.stopChannel)
	go func() {
		log.Info().Str("address", server.Addr).Msg("Starting dashboard server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Dashboard server failed")
		}
	}()

	d.isRunning = true
	return nil
}

// Stop closes every websocket and shuts the server down.
func (d *Dashboard) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.isRunning {
		return nil
	}
	close(d.stopChannel)
	d.closeClients()
	d.isRunning = false

	if err := d.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown dashboard server: %w", err)
	}
	log.Info().Msg("Dashboard stopped")
	return nil
}

// clientBroadcaster pushes every new state to all websocket clients until
// stop is closed.
func (d *Dashboard) clientBroadcaster(stop <-chan struct{}) {
	updates, unsubscribe := d.engine.Subscribe()
	defer unsubscribe()

	for {
		select {
		case s, ok := <-updates:
			if !ok {
				return
			}
			d.broadcastToClients(s)
		case <-stop:
			return
		}
	}
}

func (d *Dashboard) broadcastToClients(s state.State) {
	data, err := json.Marshal(s)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal state for broadcast")
		return
	}

	d.clientsMu.Lock()
	defer d.clientsMu.Unlock()

	for client := range d.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Msg("Dropping websocket client")
			client.Close()
			delete(d.clients, client)
			d.metricsWrapper.WSClients().Add(-1)
		}
	}
}

func (d *Dashboard) closeClients() {
	d.clientsMu.Lock()
	defer d.clientsMu.Unlock()
	for client := range d.clients {
		client.Close()
	}
	d.metricsWrapper.WSClients().Add(-float64(len(d.clients)))
	d.clients = make(map[*websocket.Conn]bool)
}

func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	data, err := json.Marshal(d.engine.State())
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal initial state")
		return
	}

	// send the initial state under the lock so it cannot interleave with a broadcast
	d.clientsMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	if err == nil {
		d.clients[conn] = true
		d.metricsWrapper.WSClients().Add(1)
	}
	d.clientsMu.Unlock()
	if err != nil {
		return
	}

	// Keep connection alive until the client goes away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	d.clientsMu.Lock()
	if d.clients[conn] {
		delete(d.clients, conn)
		d.metricsWrapper.WSClients().Add(-1)
	}
	d.clientsMu.Unlock()
}

type healthResponse struct {
	Status        string    `json:"status"`
	Updated       time.Time `json:"updated"`
	FeedErrorRate float64   `json:"feedErrorRate"`
}

func (d *Dashboard) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Updated:       d.engine.State().Updated,
		FeedErrorRate: d.metricsWrapper.ErrorRate(),
	})
}

// handleState serves the full state. ?search= filters the watchlist view.
func (d *Dashboard) handleState(w http.ResponseWriter, r *http.Request) {
	s := d.engine.State()
	if search := r.URL.Query().Get("search"); search != "" {
		s.Views.Watchlist = watchlist.Build(s.Quotes, s.Favorites, search)
	}
	writeJSON(w, http.StatusOK, s)
}

// handleFeed serves the last raw snapshot so another instance can mirror it.
func (d *Dashboard) handleFeed(w http.ResponseWriter, r *http.Request) {
	snap, ok := d.engine.LastSnapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, errors.New("no snapshot yet"))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type screenerResponse struct {
	Mode    engine.ScreenMode       `json:"mode"`
	Results []engine.ScreenerResult `json:"results"`
	Signals engine.SignalCounts     `json:"signals"`
}

func (d *Dashboard) handleScreenMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	mode, err := engine.ParseScreenMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s, err := d.engine.Dispatch(r.Context(), state.Event{Kind: state.ModeChange, At: time.Now(), Mode: mode})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, screenerResponse{Mode: s.Mode, Results: s.Views.Screener, Signals: s.Views.Signals})
}

func (d *Dashboard) handleFavorite(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	s, err := d.engine.Dispatch(r.Context(), state.Event{Kind: state.FavoriteToggle, At: time.Now(), Symbol: symbol})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"favorites": s.Favorites,
		"starred":   s.Favorites.Contains(symbol),
	})
}

func (d *Dashboard) handleSelectSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	s, err := d.engine.Dispatch(r.Context(), state.Event{Kind: state.SymbolSelect, At: time.Now(), Symbol: symbol})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"selected": s.Selected,
		"chart":    s.Chart,
	})
}

func (d *Dashboard) handleTicketEstimate(w http.ResponseWriter, r *http.Request) {
	var req ticket.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	req.Symbol = strings.ToUpper(req.Symbol)

	price, ok := d.engine.State().MarketPrice(req.Symbol)
	if !ok && req.Symbol != "" {
		writeError(w, http.StatusNotFound, fmt.Errorf("no price for %s", req.Symbol))
		return
	}

	est, err := ticket.Price(req, price, d.accountBalance)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// historyRange reads ?from and ?to (RFC 3339), defaulting to the last hour.
func historyRange(r *http.Request) (start, end time.Time, err error) {
	end = time.Now()
	start = end.Add(-time.Hour)
	if v := r.URL.Query().Get("from"); v != "" {
		if start, err = time.Parse(time.RFC3339, v); err != nil {
			return start, end, fmt.Errorf("parse from: %w", err)
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if end, err = time.Parse(time.RFC3339, v); err != nil {
			return start, end, fmt.Errorf("parse to: %w", err)
		}
	}
	return start, end, nil
}

func (d *Dashboard) handleValuationHistory(w http.ResponseWriter, r *http.Request) {
	if d.history == nil {
		writeError(w, http.StatusNotFound, errors.New("history recording is disabled"))
		return
	}
	start, end, err := historyRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	records, err := d.history.GetValuations(start, end)
	if err != nil {
		log.Error().Err(err).Msg("Valuation history query failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []storage.ValuationRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (d *Dashboard) handleSummaryHistory(w http.ResponseWriter, r *http.Request) {
	if d.history == nil {
		writeError(w, http.StatusNotFound, errors.New("history recording is disabled"))
		return
	}
	start, end, err := historyRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	records, err := d.history.GetSummaries(start, end)
	if err != nil {
		log.Error().Err(err).Msg("Summary history query failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []storage.SummaryRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (d *Dashboard) handleRiskHistory(w http.ResponseWriter, r *http.Request) {
	if d.history == nil {
		writeError(w, http.StatusNotFound, errors.New("history recording is disabled"))
		return
	}
	start, end, err := historyRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	records, err := d.history.GetRiskInRange(start, end)
	if err != nil {
		log.Error().Err(err).Msg("Risk history query failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []storage.RiskRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleHistoryReport analyses the recorded valuations of the range.
func (d *Dashboard) handleHistoryReport(w http.ResponseWriter, r *http.Request) {
	if d.history == nil {
		writeError(w, http.StatusNotFound, errors.New("history recording is disabled"))
		return
	}
	start, end, err := historyRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	results, err := replay.Load(d.history, start, end)
	switch {
	case errors.Is(err, replay.ErrNoData):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		log.Error().Err(err).Msg("History report failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	results.Points = nil
	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
