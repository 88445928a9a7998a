package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"market-dashboard/internal/cfg"
	"market-dashboard/internal/replay"
	"market-dashboard/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		dataPath   = flag.String("data", "", "Path to data directory (defaults to DATA_PATH)")
		outputPath = flag.String("output", "replay", "Output directory for reports")
		logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
		startDate  = flag.String("start", "", "Start date (YYYY-MM-DD or RFC3339)")
		endDate    = flag.String("end", "", "End date (YYYY-MM-DD or RFC3339)")
	)
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *dataPath == "" {
		config, err := cfg.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load config")
		}
		*dataPath = config.DataPath
	}

	endTime := time.Now()
	if *endDate != "" {
		if endTime, err = parseDate(*endDate); err != nil {
			log.Fatal().Err(err).Msg("Invalid end date")
		}
	}
	startTime := endTime.AddDate(0, 0, -1)
	if *startDate != "" {
		if startTime, err = parseDate(*startDate); err != nil {
			log.Fatal().Err(err).Msg("Invalid start date")
		}
	}
	if endTime.Before(startTime) {
		log.Fatal().Time("start", startTime).Time("end", endTime).Msg("End date is before start date")
	}

	fmt.Println("=== Replay Configuration ===")
	fmt.Printf("Data Path: %s\n", *dataPath)
	fmt.Printf("Output Directory: %s\n", *outputPath)
	fmt.Printf("Period: %s to %s\n", startTime.Format(time.RFC3339), endTime.Format(time.RFC3339))
	fmt.Println("============================")

	// bbolt holds an exclusive lock, so this fails while the dashboard is running.
	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *dataPath).Msg("Failed to open history database")
	}
	defer store.Close()

	results, err := replay.Load(store, startTime, endTime)
	if errors.Is(err, replay.ErrNoData) {
		log.Warn().Msg("No valuations recorded in the requested period")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load valuations")
	}

	reporter := replay.NewReporter(results, *outputPath)
	if err := reporter.GenerateReport(); err != nil {
		log.Error().Err(err).Msg("Failed to generate reports")
	}

	reporter.PrintSummary()

	log.Info().
		Str("output", *outputPath).
		Int("samples", results.Samples).
		Msg("Replay completed")
}

// parseDate accepts a plain date or a full RFC3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.Local)
}
