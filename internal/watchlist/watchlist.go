// Package watchlist filters and groups quotes for the watchlist panel.
package watchlist

import (
	"math"
	"strings"

	"market-dashboard/internal/engine"
)

// DefaultFavorites are starred on a fresh dashboard.
var DefaultFavorites = []string{"AAPL", "GOOGL", "MSFT"}

// Favorites is an ordered set of starred symbols. Methods never modify the
// receiver's backing array.
type Favorites []string

// Contains reports whether symbol is starred.
func (f Favorites) Contains(symbol string) bool {
	for _, s := range f {
		if s == symbol {
			return true
		}
	}
	return false
}

// Toggle stars an unstarred symbol (appending it) or unstars a starred one.
func (f Favorites) Toggle(symbol string) Favorites {
	out := make(Favorites, 0, len(f)+1)
	found := false
	for _, s := range f {
		if s == symbol {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, symbol)
	}
	return out
}

// View is the watchlist panel content.
type View struct {
	Count     int            `json:"count"`
	Favorites []engine.Quote `json:"favorites"`
	Others    []engine.Quote `json:"others"`
}

// Build filters quotes by a case-insensitive symbol substring and splits them
// into starred and other rows, both in quote order.
func Build(quotes []engine.Quote, favorites Favorites, search string) View {
	needle := strings.ToLower(strings.TrimSpace(search))
	v := View{Favorites: []engine.Quote{}, Others: []engine.Quote{}}
	for _, q := range quotes {
		if needle != "" && !strings.Contains(strings.ToLower(q.Symbol), needle) {
			continue
		}
		v.Count++
		if favorites.Contains(q.Symbol) {
			v.Favorites = append(v.Favorites, q)
		} else {
			v.Others = append(v.Others, q)
		}
	}
	return v
}

// BarWidth is the percentage width of the change indicator bar for a quote.
func BarWidth(q engine.Quote) float64 {
	return math.Min(math.Abs(q.ChangePercent)*10, 100)
}
