package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"market-dashboard/internal/cfg"
	"market-dashboard/internal/chart"
	"market-dashboard/internal/feed"
	"market-dashboard/internal/replay"
	"market-dashboard/internal/state"
	"market-dashboard/internal/storage"

	"github.com/rs/zerolog/log"
)

// Fills a history database with simulated dashboard ticks so the replay
// tool has something to read without running the dashboard for hours.
func main() {
	var (
		dataPath = flag.String("data", "data", "Data directory path")
		hours    = flag.Int("hours", 24, "Hours of history to generate")
		step     = flag.Duration("step", 3*time.Second, "Simulated time between ticks")
		seed     = flag.Int64("seed", 1, "Random seed")
	)
	flag.Parse()

	fmt.Printf("Generating sample history...\n")
	fmt.Printf("  Hours: %d\n", *hours)
	fmt.Printf("  Step: %s\n", *step)
	fmt.Printf("  Data Path: %s\n", *dataPath)

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	if err := os.MkdirAll(*dataPath, 0o750); err != nil {
		log.Fatal().Err(err).Msg("create data path")
	}
	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()

	holdings := make([]string, len(c.Holdings))
	for i, h := range c.Holdings {
		holdings[i] = h.Symbol
	}
	src := feed.NewRandom(feed.RandomConfig{
		Symbols:         c.Symbols,
		ScreenerSymbols: c.ScreenerSymbols,
		Holdings:        holdings,
		Seed:            *seed,
	})

	initial := state.New(c.Holdings, c.Favorites, c.ScreenMode, c.SelectedSymbol, chart.DefaultCapacity)
	end := time.Now()
	start := end.Add(-time.Duration(*hours) * time.Hour)

	count, err := replay.Simulate(context.Background(), store, src, initial, start, end, *step)
	if err != nil {
		log.Fatal().Err(err).Int("recorded", count).Msg("failed to generate history")
	}

	fmt.Printf("✓ Generated %d ticks of sample history\n", count)
}
