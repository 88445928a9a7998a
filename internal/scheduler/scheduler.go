package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Trigger is one firing of a registered timer.
type Trigger struct {
	Name string
	At   time.Time
}

// Scheduler fires named triggers on cron schedules. It never runs work
// itself; consumers read Triggers and act on them.
type Scheduler struct {
	cron     *cron.Cron
	log      zerolog.Logger
	triggers chan Trigger
}

// New creates a scheduler whose trigger channel holds up to buffer
// undelivered firings.
func New(log zerolog.Logger, buffer int) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		log:      log.With().Str("component", "scheduler").Logger(),
		triggers: make(chan Trigger, buffer),
	}
}

// Triggers is the channel firings are delivered on.
func (s *Scheduler) Triggers() <-chan Trigger { return s.triggers }

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("timers", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for in-flight firings.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// Every registers a trigger fired every interval. Cron cannot go below one
// second, so shorter intervals are rounded up.
func (s *Scheduler) Every(name string, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("timer %s: interval must be positive, got %s", name, interval)
	}
	return s.Add(name, "@every "+interval.String())
}

// Add registers a trigger with a cron schedule. Schedule examples:
//   - "@every 2s"
//   - "*/5 * * * * *" - every 5 seconds
func (s *Scheduler) Add(name, schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.Fire(name) }); err != nil {
		return fmt.Errorf("register timer %s: %w", name, err)
	}
	s.log.Info().Str("schedule", schedule).Str("timer", name).Msg("Timer registered")
	return nil
}

// Fire delivers a trigger immediately. When the consumer is behind the
// firing is dropped; the next one carries fresh data anyway.
func (s *Scheduler) Fire(name string) bool {
	select {
	case s.triggers <- Trigger{Name: name, At: time.Now()}:
		return true
	default:
		s.log.Debug().Str("timer", name).Msg("Consumer busy, trigger dropped")
		return false
	}
}
