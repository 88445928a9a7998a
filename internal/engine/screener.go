package engine

import (
	"math"
	"sort"
)

const (
	minConfidence = 20.0
	maxConfidence = 95.0
)

// SignalResult is the output of ComputeScreenerSignal.
type SignalResult struct {
	Signal     Signal  `json:"signal"`
	Confidence float64 `json:"confidence"`
}

// ComputeScreenerSignal applies the rule set of mode to one candidate.
// Confidence is clamped to [20, 95].
func ComputeScreenerSignal(c Candidate, mode ScreenMode) SignalResult {
	var r SignalResult
	switch mode {
	case ModeMomentum:
		r = momentumSignal(c)
	case ModeGrowth:
		r = growthSignal(c)
	case ModeValue:
		r = valueSignal(c)
	case ModeDividend:
		r = dividendSignal(c)
	default:
		r = SignalResult{Signal: SignalHold, Confidence: c.BaseConfidence}
	}
	r.Confidence = clamp(r.Confidence, minConfidence, maxConfidence)
	return r
}

func momentumSignal(c Candidate) SignalResult {
	r := SignalResult{Signal: SignalHold, Confidence: math.Abs(c.Momentum)*5 + 50}
	switch {
	case c.Momentum > 5:
		r.Signal = SignalBuy
	case c.Momentum < -5:
		r.Signal = SignalSell
	}
	return r
}

func growthSignal(c Candidate) SignalResult {
	r := SignalResult{Signal: SignalHold, Confidence: c.BaseConfidence}
	switch {
	case c.RSI < 40 && c.Momentum > 2:
		r.Signal = SignalBuy
	case c.RSI > 70:
		r.Signal = SignalSell
	}
	return r
}

func valueSignal(c Candidate) SignalResult {
	r := SignalResult{Signal: SignalHold, Confidence: c.BaseConfidence}
	switch {
	case c.PERatio < 15 && c.RSI < 50:
		r.Signal = SignalBuy
	case c.PERatio > 25:
		r.Signal = SignalSell
	}
	return r
}

func dividendSignal(c Candidate) SignalResult {
	r := SignalResult{Signal: SignalHold, Confidence: c.BaseConfidence}
	switch {
	case c.DivYield > 3 && c.RSI < 60:
		r.Signal = SignalBuy
	case c.DivYield < 1:
		r.Signal = SignalSell
	}
	return r
}

// Screen scores every candidate under mode and orders the results: buy
// signals first, then by confidence descending.
func Screen(candidates []Candidate, mode ScreenMode) []ScreenerResult {
	results := make([]ScreenerResult, 0, len(candidates))
	for _, c := range candidates {
		sig := ComputeScreenerSignal(c, mode)
		results = append(results, ScreenerResult{
			Candidate:  c,
			Signal:     sig.Signal,
			Confidence: sig.Confidence,
		})
	}
	SortResults(results)
	return results
}

// SortResults orders results in place; ties keep their input order.
func SortResults(results []ScreenerResult) {
	sort.SliceStable(results, func(i, j int) bool {
		bi, bj := results[i].Signal == SignalBuy, results[j].Signal == SignalBuy
		if bi != bj {
			return bi
		}
		return results[i].Confidence > results[j].Confidence
	})
}

// SignalCounts tallies results by signal.
type SignalCounts struct {
	Buy  int `json:"buy"`
	Hold int `json:"hold"`
	Sell int `json:"sell"`
}

// CountSignals returns how many results carry each signal.
func CountSignals(results []ScreenerResult) SignalCounts {
	var c SignalCounts
	for _, r := range results {
		switch r.Signal {
		case SignalBuy:
			c.Buy++
		case SignalSell:
			c.Sell++
		default:
			c.Hold++
		}
	}
	return c
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(v, lo))
}
