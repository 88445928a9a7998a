// Package metrics provides Prometheus metrics for the market dashboard.
// It exposes tick throughput, feed health and the headline figures of each
// panel so that the dashboard itself can be graphed and alerted on.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"market-dashboard/internal/engine"
)

// Metrics holds all Prometheus metrics for the dashboard.
type Metrics struct {
	// Engine metrics
	TicksTotal   *prometheus.CounterVec // Reductions applied, by event kind
	FeedFetches  prometheus.Counter     // Snapshot fetch attempts
	FeedErrors   prometheus.Counter     // Snapshot fetches that failed
	TickDuration prometheus.Histogram   // Fetch plus reduce time per tick

	// Panel metrics
	PortfolioValue     prometheus.Gauge // Current total portfolio value
	PortfolioPnL       prometheus.Gauge // Current unrealised profit and loss
	PortfolioReturnPct prometheus.Gauge // Return on cost basis in percent
	OverallRiskLevel   prometheus.Gauge // 1 low, 2 medium, 3 high
	MarketAvgChangePct prometheus.Gauge // Average change across quotes
	ScreenerBuySignals prometheus.Gauge // Buy signals in the current screen

	// Transport metrics
	WSClients prometheus.Gauge // Connected websocket clients

	gatherer prometheus.Gatherer
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
// When the registerer can also gather, ErrorRate reads from it.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	m := &Metrics{
		TicksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_ticks_total",
			Help: "Total number of events reduced into dashboard state",
		}, []string{"kind"}),
		FeedFetches: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_feed_fetches_total",
			Help: "Total number of snapshot fetch attempts",
		}),
		FeedErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_feed_errors_total",
			Help: "Total number of failed snapshot fetches",
		}),
		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_tick_duration_seconds",
			Help:    "Time to fetch a snapshot and reduce it",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		PortfolioValue: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_portfolio_value",
			Help: "Current total portfolio value",
		}),
		PortfolioPnL: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_portfolio_pnl",
			Help: "Current unrealised profit and loss",
		}),
		PortfolioReturnPct: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_portfolio_return_percent",
			Help: "Portfolio return on cost basis in percent",
		}),
		OverallRiskLevel: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_overall_risk_level",
			Help: "Overall risk level (1 low, 2 medium, 3 high)",
		}),
		MarketAvgChangePct: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_market_avg_change_percent",
			Help: "Average percent change across watched quotes",
		}),
		ScreenerBuySignals: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_screener_buy_signals",
			Help: "Number of buy signals in the current screen",
		}),
		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_ws_clients",
			Help: "Number of connected websocket clients",
		}),
	}
	if g, ok := registerer.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// UpdatePanels sets the panel gauges from freshly derived figures.
func (m *Metrics) UpdatePanels(market engine.Summary, val engine.Valuation, risk engine.Level, signals engine.SignalCounts) {
	m.MarketAvgChangePct.Set(market.AvgChangePercent)
	m.PortfolioValue.Set(val.TotalValue)
	m.PortfolioPnL.Set(val.TotalPnL)
	m.PortfolioReturnPct.Set(val.TotalReturnPct)
	m.OverallRiskLevel.Set(float64(risk.Score()))
	m.ScreenerBuySignals.Set(float64(signals.Buy))
}

// ErrorRate is the ratio of failed fetches to all fetch attempts, or 0 if
// nothing has been fetched or the registry cannot be gathered. User commands
// never fetch, so they do not dilute the rate.
func (m *Metrics) ErrorRate() float64 {
	if m.gatherer == nil {
		return 0
	}
	families, err := m.gatherer.Gather()
	if err != nil {
		return 0
	}

	var fetches, errs float64
	for _, mf := range families {
		switch mf.GetName() {
		case "dashboard_feed_fetches_total":
			for _, metric := range mf.GetMetric() {
				fetches += metric.GetCounter().GetValue()
			}
		case "dashboard_feed_errors_total":
			for _, metric := range mf.GetMetric() {
				errs += metric.GetCounter().GetValue()
			}
		}
	}

	if fetches == 0 {
		return 0
	}
	return errs / fetches
}
