// Package state holds the dashboard state and the pure reducer that advances
// it one event at a time. Derived views are recomputed from source values on
// every reduction, so a classification can never go stale.
package state

import (
	"fmt"
	"time"

	"market-dashboard/internal/chart"
	"market-dashboard/internal/engine"
	"market-dashboard/internal/feed"
	"market-dashboard/internal/watchlist"
)

// Kind tags an Event.
type Kind int

const (
	MarketTick Kind = iota
	PortfolioTick
	RiskTick
	ScreenerTick
	ChartTick
	ModeChange
	FavoriteToggle
	SymbolSelect
)

// TickKinds are the timer-driven kinds, in registration order.
var TickKinds = []Kind{MarketTick, PortfolioTick, RiskTick, ScreenerTick, ChartTick}

func (k Kind) String() string {
	switch k {
	case MarketTick:
		return "market"
	case PortfolioTick:
		return "portfolio"
	case RiskTick:
		return "risk"
	case ScreenerTick:
		return "screener"
	case ChartTick:
		return "chart"
	case ModeChange:
		return "mode"
	case FavoriteToggle:
		return "favorite"
	case SymbolSelect:
		return "select"
	}
	return "unknown"
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for k := MarketTick; k <= SymbolSelect; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

// Event is one input to Reduce. Which fields matter depends on Kind.
type Event struct {
	Kind     Kind
	At       time.Time
	Snapshot feed.Snapshot
	Mode     engine.ScreenMode
	Symbol   string
}

// State is the whole dashboard. Treat it as a value: Reduce never mutates
// the slices of its input.
type State struct {
	Mode          engine.ScreenMode   `json:"mode"`
	Selected      string              `json:"selected"`
	Favorites     watchlist.Favorites `json:"favorites"`
	Quotes        []engine.Quote      `json:"quotes"`
	PrevQuotes    []engine.Quote      `json:"prevQuotes"`
	Holdings      []engine.Holding    `json:"holdings"`
	Risk          []engine.RiskMetric `json:"risk"`
	Candidates    []engine.Candidate  `json:"candidates"`
	Chart         chart.Series        `json:"chart"`
	ChartCapacity int                 `json:"-"`
	Updated       time.Time           `json:"updated"`
	Views         Views               `json:"views"`
}

// Views are the derived panel figures.
type Views struct {
	Market         engine.Summary          `json:"market"`
	Valuation      engine.Valuation        `json:"valuation"`
	Positions      []engine.Position       `json:"positions"`
	Risk           engine.RiskAssessment   `json:"risk"`
	RiskLabel      string                  `json:"riskLabel"`
	Recommendation engine.Recommendation   `json:"recommendation"`
	Screener       []engine.ScreenerResult `json:"screener"`
	Signals        engine.SignalCounts     `json:"signals"`
	Watchlist      watchlist.View          `json:"watchlist"`
	ChartStats     chart.Stats             `json:"chartStats"`
}

// New returns the initial state with derived views filled in.
func New(holdings []engine.Holding, favorites []string, mode engine.ScreenMode, selected string, chartCapacity int) State {
	s := State{
		Mode:          mode,
		Selected:      selected,
		Favorites:     append(watchlist.Favorites(nil), favorites...),
		Holdings:      append([]engine.Holding(nil), holdings...),
		Chart:         chart.Series{Symbol: selected, Capacity: chartCapacity},
		ChartCapacity: chartCapacity,
	}
	s.Views = Derive(s)
	return s
}

// Reduce applies ev to s and returns the next state.
func Reduce(s State, ev Event) State {
	switch ev.Kind {
	case MarketTick:
		s.PrevQuotes = s.Quotes
		s.Quotes = append([]engine.Quote(nil), ev.Snapshot.Quotes...)
	case PortfolioTick:
		s.Holdings = applyMoves(s.Holdings, ev.Snapshot.PriceMoves)
	case RiskTick:
		s.Risk = append([]engine.RiskMetric(nil), ev.Snapshot.Risk...)
	case ScreenerTick:
		s.Candidates = append([]engine.Candidate(nil), ev.Snapshot.Candidates...)
	case ChartTick:
		s.Chart = advanceChart(s, ev)
	case ModeChange:
		s.Mode = ev.Mode
	case FavoriteToggle:
		s.Favorites = s.Favorites.Toggle(ev.Symbol)
	case SymbolSelect:
		if ev.Symbol != s.Selected {
			s.Selected = ev.Symbol
			s.Chart = chart.Series{Symbol: ev.Symbol, Capacity: s.ChartCapacity}
		}
	default:
		return s
	}
	if !ev.At.IsZero() {
		s.Updated = ev.At
	}
	s.Views = Derive(s)
	return s
}

// Derive computes every view from the state's source values.
func Derive(s State) Views {
	risk := engine.ClassifyRisk(s.Risk)
	screener := engine.Screen(s.Candidates, s.Mode)
	return Views{
		Market:         engine.ComputeMarketSummary(s.Quotes),
		Valuation:      engine.ComputePortfolioValuation(s.Holdings),
		Positions:      engine.ComputePositions(s.Holdings),
		Risk:           risk,
		RiskLabel:      engine.RiskLabel(risk.Overall),
		Recommendation: engine.Recommend(risk.Overall),
		Screener:       screener,
		Signals:        engine.CountSignals(screener),
		Watchlist:      watchlist.Build(s.Quotes, s.Favorites, ""),
		ChartStats:     s.Chart.Stats(),
	}
}

// Quote returns the current quote for symbol.
func (s State) Quote(symbol string) (engine.Quote, bool) {
	for _, q := range s.Quotes {
		if q.Symbol == symbol {
			return q, true
		}
	}
	return engine.Quote{}, false
}

// MarketPrice is the best known price for symbol: the live quote, then the
// portfolio price, then the chart's last point.
func (s State) MarketPrice(symbol string) (float64, bool) {
	if q, ok := s.Quote(symbol); ok {
		return q.Price, true
	}
	for _, h := range s.Holdings {
		if h.Symbol == symbol {
			return h.CurrentPrice, true
		}
	}
	if s.Chart.Symbol == symbol && !s.Chart.Empty() {
		return s.Chart.Stats().Last, true
	}
	return 0, false
}

func applyMoves(holdings []engine.Holding, moves map[string]float64) []engine.Holding {
	out := make([]engine.Holding, len(holdings))
	for i, h := range holdings {
		if m, ok := moves[h.Symbol]; ok {
			h.CurrentPrice *= m
		}
		out[i] = h
	}
	return out
}

func advanceChart(s State, ev Event) chart.Series {
	draw := ev.Snapshot.Chart
	at := ev.At
	if at.IsZero() {
		at = ev.Snapshot.Taken
	}
	if s.Chart.Empty() || s.Chart.Symbol != s.Selected {
		return chart.Seed(s.Selected, draw.Base, draw.History, draw.HistoryVolumes, at, s.ChartCapacity)
	}
	return s.Chart.Append(draw.Step, draw.Volume, at)
}
