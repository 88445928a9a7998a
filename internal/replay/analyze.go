// Package replay analyses recorded dashboard history offline: it walks the
// valuation series written by the recorder and derives drawdown and
// return statistics for a period.
package replay

import (
	"errors"
	"math"
	"time"

	"market-dashboard/internal/storage"

	"gonum.org/v1/gonum/stat"
)

// ErrNoData is returned when the requested period holds no valuations.
var ErrNoData = errors.New("no valuations recorded in period")

// Results summarises a valuation series.
type Results struct {
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Samples      int       `json:"samples"`
	InitialValue float64   `json:"initial_value"`
	FinalValue   float64   `json:"final_value"`
	PeakValue    float64   `json:"peak_value"`
	Change       float64   `json:"change"`
	ChangePct    float64   `json:"change_pct"`
	FinalPnL     float64   `json:"final_pnl"`
	MaxDrawdown  float64   `json:"max_drawdown"` // percent from peak
	Volatility   float64   `json:"volatility"`   // stddev of per-sample returns, percent
	SharpeRatio  float64   `json:"sharpe_ratio"` // per sample, not annualised

	Points []storage.ValuationRecord `json:"points,omitempty"`
}

// Source is where recorded valuations come from; storage.Store satisfies it.
type Source interface {
	GetValuations(start, end time.Time) ([]storage.ValuationRecord, error)
}

// Load reads the valuations in [start, end] and analyses them.
func Load(src Source, start, end time.Time) (*Results, error) {
	records, err := src.GetValuations(start, end)
	if err != nil {
		return nil, err
	}
	return Analyze(records)
}

// Analyze computes Results for records, which must be in time order.
func Analyze(records []storage.ValuationRecord) (*Results, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	first, last := records[0], records[len(records)-1]
	r := &Results{
		StartTime:    first.Timestamp,
		EndTime:      last.Timestamp,
		Samples:      len(records),
		InitialValue: first.Valuation.TotalValue,
		FinalValue:   last.Valuation.TotalValue,
		FinalPnL:     last.Valuation.TotalPnL,
		Points:       records,
	}
	r.Change = r.FinalValue - r.InitialValue
	if r.InitialValue != 0 {
		r.ChangePct = r.Change / r.InitialValue * 100
	}

	r.PeakValue, r.MaxDrawdown = maxDrawdown(records)

	returns := stepReturns(records)
	if len(returns) >= 2 {
		mean, std := stat.MeanStdDev(returns, nil)
		r.Volatility = std * 100
		if std != 0 {
			r.SharpeRatio = mean / std
		}
	}
	return r, nil
}

func maxDrawdown(records []storage.ValuationRecord) (peak, drawdown float64) {
	peak = math.Inf(-1)
	for _, rec := range records {
		v := rec.Valuation.TotalValue
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > drawdown {
				drawdown = dd
			}
		}
	}
	return peak, drawdown * 100
}

// stepReturns are the fractional changes between consecutive samples,
// skipping steps that start from zero.
func stepReturns(records []storage.ValuationRecord) []float64 {
	var out []float64
	for i := 1; i < len(records); i++ {
		prev := records[i-1].Valuation.TotalValue
		if prev == 0 {
			continue
		}
		out = append(out, (records[i].Valuation.TotalValue-prev)/prev)
	}
	return out
}
