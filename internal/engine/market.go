package engine

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TopMovers is how many gainers and losers the summary keeps.
const TopMovers = 3

// Summary aggregates one market snapshot.
type Summary struct {
	TotalMarketCap   int64   `json:"totalMarketCap"`
	TotalVolume      int64   `json:"totalVolume"`
	Gainers          int     `json:"gainers"`
	Losers           int     `json:"losers"`
	AvgChangePercent float64 `json:"avgChangePercent"`
	TopGainers       []Quote `json:"topGainers"`
	TopLosers        []Quote `json:"topLosers"`
}

// Bullish reports whether the average change is non-negative.
func (s Summary) Bullish() bool { return s.AvgChangePercent >= 0 }

// ComputeMarketSummary sums caps and volumes, counts advancing and declining
// symbols and picks the top movers. The input slice is not modified.
func ComputeMarketSummary(quotes []Quote) Summary {
	s := Summary{
		TopGainers: []Quote{},
		TopLosers:  []Quote{},
	}
	if len(quotes) == 0 {
		return s
	}

	changes := make([]float64, 0, len(quotes))
	for _, q := range quotes {
		s.TotalMarketCap += q.MarketCap
		s.TotalVolume += q.Volume
		switch {
		case q.Change > 0:
			s.Gainers++
			s.TopGainers = append(s.TopGainers, q)
		case q.Change < 0:
			s.Losers++
			s.TopLosers = append(s.TopLosers, q)
		}
		changes = append(changes, q.ChangePercent)
	}
	s.AvgChangePercent = stat.Mean(changes, nil)

	sort.SliceStable(s.TopGainers, func(i, j int) bool {
		return s.TopGainers[i].ChangePercent > s.TopGainers[j].ChangePercent
	})
	sort.SliceStable(s.TopLosers, func(i, j int) bool {
		return s.TopLosers[i].ChangePercent < s.TopLosers[j].ChangePercent
	})
	if len(s.TopGainers) > TopMovers {
		s.TopGainers = s.TopGainers[:TopMovers]
	}
	if len(s.TopLosers) > TopMovers {
		s.TopLosers = s.TopLosers[:TopMovers]
	}
	return s
}
