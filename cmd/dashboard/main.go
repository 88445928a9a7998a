package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"market-dashboard/internal/cfg"
	"market-dashboard/internal/chart"
	"market-dashboard/internal/dashboard"
	"market-dashboard/internal/feed"
	"market-dashboard/internal/metrics"
	"market-dashboard/internal/runner"
	"market-dashboard/internal/scheduler"
	"market-dashboard/internal/state"
	"market-dashboard/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to read .env")
	}

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c.LogLevel)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	store := initializeStorage(c)
	var (
		recorder runner.Recorder
		history  dashboard.History
	)
	if store != nil {
		defer store.Close()
		recorder, history = store, store
	}

	initial := state.New(c.Holdings, c.Favorites, c.ScreenMode, c.SelectedSymbol, chart.DefaultCapacity)
	r := runner.New(initial, newSource(c), mw, recorder, log.Logger)

	sched := scheduler.New(log.Logger, 2*len(state.TickKinds))
	intervals := c.Intervals()
	for _, kind := range state.TickKinds {
		if err := sched.Every(kind.String(), intervals[kind.String()]); err != nil {
			log.Fatal().Err(err).Msg("scheduler setup failed")
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Run(ctx, sched.Triggers())
	}()

	// fill every panel right away instead of waiting for the first interval
	for _, kind := range state.TickKinds {
		sched.Fire(kind.String())
	}
	sched.Start()
	defer sched.Stop()

	dash := dashboard.NewDashboard(r, history, mw, c.AccountBalance, c.HTTPPort)
	if err := dash.Start(); err != nil {
		log.Fatal().Err(err).Msg("dashboard start failed")
	}

	log.Info().
		Strs("symbols", c.Symbols).
		Int("port", c.HTTPPort).
		Str("mode", c.ScreenMode.String()).
		Bool("recording", store != nil).
		Msg("market dashboard running")

	waitForShutdown(ctx, cancel, &wg)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := dash.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("failed to stop dashboard")
	}
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// newSource mirrors an upstream dashboard when UPSTREAM_URL is set, otherwise
// generates mock data locally.
func newSource(c cfg.Settings) feed.Source {
	if c.UpstreamURL != "" {
		log.Info().Str("upstream", c.UpstreamURL).Msg("mirroring upstream feed")
		return feed.NewRemote(c.UpstreamURL, c.RESTTimeout)
	}

	holdings := make([]string, len(c.Holdings))
	for i, h := range c.Holdings {
		holdings[i] = h.Symbol
	}
	return feed.NewRandom(feed.RandomConfig{
		Symbols:         c.Symbols,
		ScreenerSymbols: c.ScreenerSymbols,
		Holdings:        holdings,
		HistoryLength:   chart.DefaultCapacity,
		Seed:            c.Seed,
	})
}

// initializeStorage initializes storage if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	if err := os.MkdirAll(c.DataPath, 0o750); err != nil {
		log.Warn().Err(err).Msg("cannot create data path, continuing without history")
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without history")
		return nil
	}
	return store
}

// waitForShutdown waits for shutdown signals and handles graceful shutdown
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, wg *sync.WaitGroup) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all goroutines stopped")
	case <-time.After(10 * time.Second):
		log.Warn().Msg("shutdown timeout, forcing exit")
	}
}
