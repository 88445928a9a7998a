package feed

import (
	"context"
	"math/rand"
	"time"

	"market-dashboard/internal/engine"
)

// DefaultHistoryLength is the number of chart points in a seed history.
const DefaultHistoryLength = 100

// RandomConfig lists what the generator draws numbers for.
type RandomConfig struct {
	Symbols         []string // market quotes
	ScreenerSymbols []string // screener candidates
	Holdings        []string // symbols that receive a price move
	HistoryLength   int
	Seed            int64 // 0 seeds from the clock
}

// Random draws uniformly distributed mock values. It is not safe for
// concurrent use; the runner calls it from a single goroutine.
type Random struct {
	cfg RandomConfig
	rng *rand.Rand
	now func() time.Time
}

// NewRandom creates a generator. A zero seed is replaced by the current time.
func NewRandom(c RandomConfig) *Random {
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if c.HistoryLength <= 0 {
		c.HistoryLength = DefaultHistoryLength
	}
	return &Random{cfg: c, rng: rand.New(rand.NewSource(seed)), now: time.Now}
}

// Next draws a complete snapshot.
func (r *Random) Next(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Taken:      r.now(),
		Quotes:     r.quotes(),
		PriceMoves: r.priceMoves(),
		Risk:       r.risk(),
		Candidates: r.candidates(),
		Chart:      r.chart(),
	}, nil
}

// between returns a uniform value in [lo, lo+span).
func (r *Random) between(lo, span float64) float64 {
	return lo + r.rng.Float64()*span
}

// centered returns a uniform value in [-width/2, width/2).
func (r *Random) centered(width float64) float64 {
	return (r.rng.Float64() - 0.5) * width
}

func (r *Random) quotes() []engine.Quote {
	quotes := make([]engine.Quote, 0, len(r.cfg.Symbols))
	for _, s := range r.cfg.Symbols {
		quotes = append(quotes, engine.Quote{
			Symbol:        s,
			Price:         r.between(100, 400),
			Change:        r.centered(20),
			ChangePercent: r.centered(10),
			Volume:        r.rng.Int63n(10_000_000),
			MarketCap:     r.rng.Int63n(3_000_000_000_000),
		})
	}
	return quotes
}

func (r *Random) priceMoves() map[string]float64 {
	moves := make(map[string]float64, len(r.cfg.Holdings))
	for _, s := range r.cfg.Holdings {
		moves[s] = 1 + r.centered(0.02)
	}
	return moves
}

func (r *Random) risk() []engine.RiskMetric {
	return []engine.RiskMetric{
		engine.NewRiskMetric(engine.RiskVaR, r.between(2.5, 2)),
		engine.NewRiskMetric(engine.RiskBeta, r.between(0.8, 0.6)),
		engine.NewRiskMetric(engine.RiskVolatility, r.between(15, 20)),
		engine.NewRiskMetric(engine.RiskSharpe, r.between(0.5, 1.5)),
		engine.NewRiskMetric(engine.RiskMaxDrawdown, r.between(5, 15)),
		engine.NewRiskMetric(engine.RiskCorrelation, r.between(0.3, 0.5)),
	}
}

func (r *Random) candidates() []engine.Candidate {
	out := make([]engine.Candidate, 0, len(r.cfg.ScreenerSymbols))
	for _, s := range r.cfg.ScreenerSymbols {
		out = append(out, engine.Candidate{
			Symbol:         s,
			RSI:            r.between(30, 40),
			Momentum:       r.centered(20),
			PERatio:        r.between(10, 30),
			PBRatio:        r.between(1, 5),
			DivYield:       r.between(0, 5),
			BaseConfidence: r.between(50, 40),
			Price:          r.between(100, 400),
			MarketCap:      r.rng.Int63n(3000) * 1_000_000_000,
		})
	}
	return out
}

func (r *Random) chart() ChartDraw {
	d := ChartDraw{
		Base:           r.between(150, 100),
		History:        make([]float64, r.cfg.HistoryLength),
		HistoryVolumes: make([]int64, r.cfg.HistoryLength),
	}
	trend := r.centered(0.02)
	for i := range d.History {
		volatility := r.rng.Float64() * 0.05
		d.History[i] = 1 + trend + r.centered(volatility)
		d.HistoryVolumes[i] = r.rng.Int63n(1_000_000)
	}
	d.Step = 1 + r.centered(0.02)
	d.Volume = r.rng.Int63n(1_000_000)
	return d
}
