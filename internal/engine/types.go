// Package engine computes the derived figures shown on the market dashboard:
// market summary, portfolio valuation, risk classification and screener signals.
//
// Every function in this package is pure. Inputs are assumed to be finite,
// well-formed numbers; the only guarded condition is division by zero, which
// yields 0 instead of NaN or Inf.
package engine

import (
	"fmt"
	"strings"
)

// Quote is a single market data row for one symbol.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        int64   `json:"volume"`
	MarketCap     int64   `json:"marketCap"`
}

// Holding is a portfolio position. Allocation is the target allocation in percent.
type Holding struct {
	Symbol       string  `json:"symbol"`
	Shares       float64 `json:"shares"`
	AvgPrice     float64 `json:"avgPrice"`
	CurrentPrice float64 `json:"currentPrice"`
	Allocation   float64 `json:"allocation"`
}

// Level is a low/medium/high risk classification.
type Level int

const (
	LevelLow Level = iota + 1
	LevelMedium
	LevelHigh
)

// Score is the numeric weight used when averaging levels.
func (l Level) Score() int { return int(l) }

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	}
	return "unknown"
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(b []byte) error {
	switch string(b) {
	case "low":
		*l = LevelLow
	case "medium":
		*l = LevelMedium
	case "high":
		*l = LevelHigh
	default:
		return fmt.Errorf("unknown risk level %q", b)
	}
	return nil
}

// RiskKind enumerates the six fixed risk metrics.
type RiskKind int

const (
	RiskVaR RiskKind = iota
	RiskBeta
	RiskVolatility
	RiskSharpe
	RiskMaxDrawdown
	RiskCorrelation
)

// RiskKinds lists every kind in display order.
var RiskKinds = []RiskKind{RiskVaR, RiskBeta, RiskVolatility, RiskSharpe, RiskMaxDrawdown, RiskCorrelation}

var riskKindNames = map[RiskKind]string{
	RiskVaR:         "VaR (1-day)",
	RiskBeta:        "Beta",
	RiskVolatility:  "Volatility",
	RiskSharpe:      "Sharpe Ratio",
	RiskMaxDrawdown: "Max Drawdown",
	RiskCorrelation: "Correlation",
}

var riskKindDescriptions = map[RiskKind]string{
	RiskVaR:         "Potential loss in 1 day (95% confidence)",
	RiskBeta:        "Sensitivity to market movements",
	RiskVolatility:  "Price fluctuation measure (30-day)",
	RiskSharpe:      "Risk-adjusted return",
	RiskMaxDrawdown: "Largest peak-to-trough loss",
	RiskCorrelation: "Portfolio diversification measure",
}

// riskCeilings are the fixed maximum values per kind.
var riskCeilings = map[RiskKind]float64{
	RiskVaR:         10,
	RiskBeta:        2,
	RiskVolatility:  50,
	RiskSharpe:      3,
	RiskMaxDrawdown: 30,
	RiskCorrelation: 1,
}

func (k RiskKind) String() string {
	if n, ok := riskKindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Ceiling returns the fixed maximum for the kind.
func (k RiskKind) Ceiling() float64 { return riskCeilings[k] }

// Description is the human readable explanation shown next to the metric.
func (k RiskKind) Description() string { return riskKindDescriptions[k] }

func (k RiskKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *RiskKind) UnmarshalText(b []byte) error {
	for kind, name := range riskKindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown risk metric %q", b)
}

// RiskMetric is one risk reading. Its level is never stored, see ClassifyLevel.
type RiskMetric struct {
	Kind  RiskKind `json:"kind"`
	Value float64  `json:"value"`
	Max   float64  `json:"max"`
}

// NewRiskMetric builds a metric using the kind's fixed ceiling.
func NewRiskMetric(kind RiskKind, value float64) RiskMetric {
	return RiskMetric{Kind: kind, Value: value, Max: kind.Ceiling()}
}

// Signal is the screener recommendation.
type Signal int

const (
	SignalHold Signal = iota
	SignalBuy
	SignalSell
)

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "buy"
	case SignalSell:
		return "sell"
	}
	return "hold"
}

func (s Signal) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ScreenMode selects which rule set the screener applies.
type ScreenMode int

const (
	ModeMomentum ScreenMode = iota
	ModeGrowth
	ModeValue
	ModeDividend
)

// ScreenModes lists the modes in selector order.
var ScreenModes = []ScreenMode{ModeMomentum, ModeGrowth, ModeValue, ModeDividend}

func (m ScreenMode) String() string {
	switch m {
	case ModeMomentum:
		return "momentum"
	case ModeGrowth:
		return "growth"
	case ModeValue:
		return "value"
	case ModeDividend:
		return "dividend"
	}
	return "unknown"
}

// ParseScreenMode maps a mode name (case-insensitive) to its ScreenMode.
func ParseScreenMode(s string) (ScreenMode, error) {
	for _, m := range ScreenModes {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown screen mode %q", s)
}

func (m ScreenMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *ScreenMode) UnmarshalText(b []byte) error {
	mode, err := ParseScreenMode(string(b))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Candidate is the raw screener input for one symbol. BaseConfidence is used as
// the confidence for every mode except momentum, which derives its own.
type Candidate struct {
	Symbol         string  `json:"symbol"`
	Price          float64 `json:"price"`
	MarketCap      int64   `json:"marketCap"`
	PERatio        float64 `json:"peRatio"`
	PBRatio        float64 `json:"pbRatio"`
	DivYield       float64 `json:"divYield"`
	RSI            float64 `json:"rsi"`
	Momentum       float64 `json:"momentum"`
	BaseConfidence float64 `json:"baseConfidence"`
}

// ScreenerResult is a candidate together with its derived signal.
type ScreenerResult struct {
	Candidate
	Signal     Signal  `json:"signal"`
	Confidence float64 `json:"confidence"`
}
