package engine

// Valuation is the portfolio-level aggregate.
type Valuation struct {
	TotalValue     float64 `json:"totalValue"`
	TotalPnL       float64 `json:"totalPnL"`
	TotalReturnPct float64 `json:"totalReturnPct"`
}

// Profitable reports whether the portfolio is at or above cost.
func (v Valuation) Profitable() bool { return v.TotalPnL >= 0 }

// Position is the per-holding breakdown.
type Position struct {
	Holding
	Value      float64 `json:"value"`
	PnL        float64 `json:"pnl"`
	PnLPercent float64 `json:"pnlPercent"`
	Weight     float64 `json:"weight"` // share of total value, percent
}

// ComputePortfolioValuation sums value and unrealised P&L across holdings.
// The return is 0 when the cost basis (value minus P&L) is 0.
func ComputePortfolioValuation(holdings []Holding) Valuation {
	var v Valuation
	for _, h := range holdings {
		v.TotalValue += h.Shares * h.CurrentPrice
		v.TotalPnL += h.Shares * (h.CurrentPrice - h.AvgPrice)
	}
	v.TotalReturnPct = percentOf(v.TotalPnL, v.TotalValue-v.TotalPnL)
	return v
}

// HoldingPnL returns the unrealised P&L of one holding and its percentage of cost.
func HoldingPnL(h Holding) (pnl, pnlPct float64) {
	pnl = h.Shares * (h.CurrentPrice - h.AvgPrice)
	return pnl, percentOf(pnl, h.Shares*h.AvgPrice)
}

// ComputePositions expands holdings into positions in input order.
func ComputePositions(holdings []Holding) []Position {
	total := 0.0
	for _, h := range holdings {
		total += h.Shares * h.CurrentPrice
	}

	positions := make([]Position, 0, len(holdings))
	for _, h := range holdings {
		value := h.Shares * h.CurrentPrice
		pnl, pct := HoldingPnL(h)
		positions = append(positions, Position{
			Holding:    h,
			Value:      value,
			PnL:        pnl,
			PnLPercent: pct,
			Weight:     percentOf(value, total),
		})
	}
	return positions
}

// percentOf returns part/whole*100, or 0 when whole is 0.
func percentOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
