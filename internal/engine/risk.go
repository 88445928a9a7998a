package engine

import "gonum.org/v1/gonum/stat"

const (
	lowRiskBelow    = 30.0
	mediumRiskBelow = 70.0
)

// MetricLevel pairs a metric with its derived level and fill percentage.
type MetricLevel struct {
	RiskMetric
	Percent float64 `json:"percent"`
	Level   Level   `json:"level"`
}

// RiskAssessment is the result of ClassifyRisk.
type RiskAssessment struct {
	Metrics []MetricLevel `json:"metrics"`
	Overall Level         `json:"overall"`
}

// Metric returns the classified metric of the given kind, if present.
func (a RiskAssessment) Metric(kind RiskKind) (MetricLevel, bool) {
	for _, m := range a.Metrics {
		if m.Kind == kind {
			return m, true
		}
	}
	return MetricLevel{}, false
}

// ClassifyLevel maps value/max to a level: below 30% low, below 70% medium,
// otherwise high. A zero ceiling yields 0% and therefore low.
func ClassifyLevel(value, max float64) Level {
	pct := percentOf(value, max)
	switch {
	case pct < lowRiskBelow:
		return LevelLow
	case pct < mediumRiskBelow:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// OverallLevel averages level scores: below 1.5 low, below 2.5 medium, else high.
// An empty slice is low.
func OverallLevel(levels []Level) Level {
	if len(levels) == 0 {
		return LevelLow
	}
	scores := make([]float64, len(levels))
	for i, l := range levels {
		scores[i] = float64(l.Score())
	}
	mean := stat.Mean(scores, nil)
	switch {
	case mean < 1.5:
		return LevelLow
	case mean < 2.5:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// ClassifyRisk derives a level for every metric and the overall portfolio level.
func ClassifyRisk(metrics []RiskMetric) RiskAssessment {
	a := RiskAssessment{Metrics: make([]MetricLevel, 0, len(metrics))}
	levels := make([]Level, 0, len(metrics))
	for _, m := range metrics {
		level := ClassifyLevel(m.Value, m.Max)
		a.Metrics = append(a.Metrics, MetricLevel{
			RiskMetric: m,
			Percent:    percentOf(m.Value, m.Max),
			Level:      level,
		})
		levels = append(levels, level)
	}
	a.Overall = OverallLevel(levels)
	return a
}

// RiskLabel is the profile name shown for an overall level.
func RiskLabel(l Level) string {
	switch l {
	case LevelLow:
		return "Conservative"
	case LevelMedium:
		return "Moderate"
	default:
		return "Aggressive"
	}
}

// Recommendation is the advice attached to an overall risk level.
type Recommendation struct {
	HighRiskAlert bool   `json:"highRiskAlert"`
	Tip           string `json:"tip"`
}

// Recommend returns the optimisation tip for a level. High risk also raises
// the alert flag.
func Recommend(l Level) Recommendation {
	switch l {
	case LevelLow:
		return Recommendation{Tip: "Consider adding growth assets for higher returns"}
	case LevelMedium:
		return Recommendation{Tip: "Well-balanced risk profile. Monitor VaR levels"}
	default:
		return Recommendation{HighRiskAlert: true, Tip: "Reduce concentration risk through diversification"}
	}
}
