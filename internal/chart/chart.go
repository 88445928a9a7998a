// Package chart keeps the rolling price series shown for the selected symbol
// together with its SMA and RSI overlays.
package chart

import (
	"time"

	"github.com/markcheno/go-talib"
)

const (
	DefaultCapacity = 100
	SMAPeriod       = 20
	RSIPeriod       = 14
	PointInterval   = time.Minute
)

// Point is one bar of the series. SMA20 and RSI are 0 until enough history exists.
type Point struct {
	Time   time.Time `json:"time"`
	Price  float64   `json:"price"`
	Volume int64     `json:"volume"`
	SMA20  float64   `json:"sma20"`
	RSI    float64   `json:"rsi"`
}

// Series is an immutable value; every mutation returns a new Series.
type Series struct {
	Symbol   string  `json:"symbol"`
	Capacity int     `json:"capacity"`
	Points   []Point `json:"points"`
}

// Stats summarises a series. Change is the move of the last point against
// the one before it; High and Low span the whole series.
type Stats struct {
	Last          float64 `json:"last"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
}

// Empty reports whether the series has no points.
func (s Series) Empty() bool { return len(s.Points) == 0 }

// Seed builds a series by compounding base with each step factor. Points are
// spaced PointInterval apart and the last one is stamped end.
func Seed(symbol string, base float64, steps []float64, volumes []int64, end time.Time, capacity int) Series {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	points := make([]Point, 0, len(steps))
	price := base
	for i, step := range steps {
		price *= step
		p := Point{
			Time:  end.Add(-time.Duration(len(steps)-1-i) * PointInterval),
			Price: price,
		}
		if i < len(volumes) {
			p.Volume = volumes[i]
		}
		points = append(points, p)
	}
	s := Series{Symbol: symbol, Capacity: capacity, Points: trim(points, capacity)}
	s.Points = withIndicators(s.Points)
	return s
}

// Append adds a point at the last price times step and drops the oldest
// point once capacity is exceeded. An empty series is returned unchanged.
func (s Series) Append(step float64, volume int64, at time.Time) Series {
	if s.Empty() {
		return s
	}
	capacity := s.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	last := s.Points[len(s.Points)-1].Price
	points := make([]Point, len(s.Points), len(s.Points)+1)
	copy(points, s.Points)
	points = append(points, Point{Time: at, Price: last * step, Volume: volume})

	return Series{Symbol: s.Symbol, Capacity: capacity, Points: withIndicators(trim(points, capacity))}
}

// Closes returns the price column.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Price
	}
	return closes
}

// Stats computes the summary; zero for an empty series. A single point has
// no change.
func (s Series) Stats() Stats {
	if s.Empty() {
		return Stats{}
	}
	n := len(s.Points)
	first := s.Points[0].Price
	st := Stats{Last: s.Points[n-1].Price, High: first, Low: first}
	for _, p := range s.Points {
		if p.Price > st.High {
			st.High = p.Price
		}
		if p.Price < st.Low {
			st.Low = p.Price
		}
	}
	if n < 2 {
		return st
	}
	prev := s.Points[n-2].Price
	st.Change = st.Last - prev
	if prev != 0 {
		st.ChangePercent = st.Change / prev * 100
	}
	return st
}

func trim(points []Point, capacity int) []Point {
	if len(points) > capacity {
		return points[len(points)-capacity:]
	}
	return points
}

// withIndicators fills SMA20 and RSI in place.
func withIndicators(points []Point) []Point {
	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Price
	}

	var sma, rsi []float64
	if len(closes) >= SMAPeriod {
		sma = talib.Sma(closes, SMAPeriod)
	}
	if len(closes) > RSIPeriod {
		rsi = talib.Rsi(closes, RSIPeriod)
	}
	for i := range points {
		points[i].SMA20, points[i].RSI = 0, 0
		if i < len(sma) {
			points[i].SMA20 = sma[i]
		}
		if i < len(rsi) {
			points[i].RSI = rsi[i]
		}
	}
	return points
}
