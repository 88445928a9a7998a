package watchlist

import (
	"testing"

	"market-dashboard/internal/engine"

	"github.com/stretchr/testify/assert"
)

var quotes = []engine.Quote{
	{Symbol: "AAPL", ChangePercent: 1.5},
	{Symbol: "AMZN", ChangePercent: -12},
	{Symbol: "GOOGL", ChangePercent: 0.2},
	{Symbol: "TSLA", ChangePercent: -3},
}

func TestFavorites_Toggle(t *testing.T) {
	f := Favorites(DefaultFavorites)

	added := f.Toggle("TSLA")
	assert.Equal(t, Favorites{"AAPL", "GOOGL", "MSFT", "TSLA"}, added)
	assert.Len(t, f, 3, "receiver must not change")

	removed := added.Toggle("GOOGL")
	assert.Equal(t, Favorites{"AAPL", "MSFT", "TSLA"}, removed)
	assert.False(t, removed.Contains("GOOGL"))
}

func TestBuild(t *testing.T) {
	v := Build(quotes, Favorites{"GOOGL", "AAPL"}, "")

	assert.Equal(t, 4, v.Count)
	assert.Equal(t, []string{"AAPL", "GOOGL"}, symbols(v.Favorites))
	assert.Equal(t, []string{"AMZN", "TSLA"}, symbols(v.Others))
}

func TestBuild_Search(t *testing.T) {
	v := Build(quotes, Favorites{"AAPL"}, " a ")

	assert.Equal(t, 3, v.Count)
	assert.Equal(t, []string{"AAPL"}, symbols(v.Favorites))
	assert.Equal(t, []string{"AMZN", "TSLA"}, symbols(v.Others))

	none := Build(quotes, nil, "zzz")
	assert.Zero(t, none.Count)
	assert.Empty(t, none.Favorites)
}

func TestBarWidth(t *testing.T) {
	assert.Equal(t, 15.0, BarWidth(quotes[0]))
	assert.Equal(t, 100.0, BarWidth(quotes[1]))
	assert.Equal(t, 30.0, BarWidth(quotes[3]))
}

func symbols(qs []engine.Quote) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.Symbol
	}
	return out
}
