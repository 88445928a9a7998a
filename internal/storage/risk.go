package storage

import (
	"encoding/json"
	"time"

	"market-dashboard/internal/engine"
)

const riskBucket = "risk"

// RiskRecord is a risk assessment at a point in time.
type RiskRecord struct {
	Timestamp time.Time           `json:"timestamp"`
	Overall   engine.Level        `json:"overall"`
	Metrics   []engine.RiskMetric `json:"metrics"`
}

// StoreRisk records the raw risk metrics and the overall level derived from them.
// The bucket is created on first use.
func (s *Store) StoreRisk(at time.Time, a engine.RiskAssessment) error {
	rec := RiskRecord{Timestamp: at, Overall: a.Overall, Metrics: make([]engine.RiskMetric, len(a.Metrics))}
	for i, m := range a.Metrics {
		rec.Metrics[i] = m.RiskMetric
	}
	return s.put(riskBucket, "risk", at, rec)
}

// GetRiskInRange returns risk records in [start, end], oldest first.
func (s *Store) GetRiskInRange(start, end time.Time) ([]RiskRecord, error) {
	var out []RiskRecord
	err := s.scan(riskBucket, "risk", start, end, func(data []byte) error {
		var rec RiskRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}
