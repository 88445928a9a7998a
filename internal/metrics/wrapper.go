package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"market-dashboard/internal/engine"
)

// Narrow interfaces so consumers can take a fake in tests.
type Counter interface {
	Inc()
}

type Gauge interface {
	Set(float64)
	Add(float64)
}

type Histogram interface {
	Observe(float64)
}

// MetricsWrapper provides a simple interface for the runner and server to use metrics.
// A nil wrapper is valid and records nothing.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) Tick(kind string) Counter {
	if w == nil {
		return nopCounter{}
	}
	return &CounterWrapper{w.m.TicksTotal.WithLabelValues(kind)}
}

func (w *MetricsWrapper) FeedFetches() Counter {
	if w == nil {
		return nopCounter{}
	}
	return &CounterWrapper{w.m.FeedFetches}
}

func (w *MetricsWrapper) FeedErrors() Counter {
	if w == nil {
		return nopCounter{}
	}
	return &CounterWrapper{w.m.FeedErrors}
}

func (w *MetricsWrapper) TickDuration() Histogram {
	if w == nil {
		return nopHistogram{}
	}
	return &HistogramWrapper{w.m.TickDuration}
}

func (w *MetricsWrapper) WSClients() Gauge {
	if w == nil {
		return nopGauge{}
	}
	return &GaugeWrapper{w.m.WSClients}
}

func (w *MetricsWrapper) UpdatePanels(market engine.Summary, val engine.Valuation, risk engine.Level, signals engine.SignalCounts) {
	if w == nil {
		return
	}
	w.m.UpdatePanels(market, val, risk, signals)
}

func (w *MetricsWrapper) ErrorRate() float64 {
	if w == nil {
		return 0
	}
	return w.m.ErrorRate()
}

type CounterWrapper struct {
	c prometheus.Counter
}

func (cw *CounterWrapper) Inc() {
	cw.c.Inc()
}

type GaugeWrapper struct {
	g prometheus.Gauge
}

func (gw *GaugeWrapper) Set(v float64) {
	gw.g.Set(v)
}

func (gw *GaugeWrapper) Add(v float64) {
	gw.g.Add(v)
}

type HistogramWrapper struct {
	h prometheus.Histogram
}

func (hw *HistogramWrapper) Observe(v float64) {
	hw.h.Observe(v)
}

type nopCounter struct{}

func (nopCounter) Inc() {}

type nopGauge struct{}

func (nopGauge) Set(float64) {}
func (nopGauge) Add(float64) {}

type nopHistogram struct{}

func (nopHistogram) Observe(float64) {}
