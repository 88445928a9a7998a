// Package runner owns the live dashboard state. A single goroutine pulls
// snapshots on scheduler triggers, reduces them together with user commands
// and fans the resulting state out to subscribers.
package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"market-dashboard/internal/engine"
	"market-dashboard/internal/feed"
	"market-dashboard/internal/metrics"
	"market-dashboard/internal/scheduler"
	"market-dashboard/internal/state"

	"github.com/rs/zerolog"
)

// ErrStopped is returned by Dispatch once Run has returned.
var ErrStopped = errors.New("runner stopped")

// Recorder persists derived figures. Implemented by storage.Store.
type Recorder interface {
	StoreSummary(at time.Time, s engine.Summary) error
	StoreValuation(at time.Time, v engine.Valuation) error
	StoreRisk(at time.Time, a engine.RiskAssessment) error
}

type command struct {
	ev    state.Event
	reply chan state.State
}

// Runner serialises every reduction through Run.
type Runner struct {
	source   feed.Source
	metrics  *metrics.MetricsWrapper
	recorder Recorder
	log      zerolog.Logger

	commands chan command
	done     chan struct{}
	once     sync.Once

	mu       sync.RWMutex
	current  state.State
	lastSnap feed.Snapshot

	subsMu sync.Mutex
	subs   map[int]chan state.State
	nextID int
}

// New creates a runner starting from initial. m and rec may be nil.
func New(initial state.State, source feed.Source, m *metrics.MetricsWrapper, rec Recorder, log zerolog.Logger) *Runner {
	return &Runner{
		source:   source,
		metrics:  m,
		recorder: rec,
		log:      log.With().Str("component", "runner").Logger(),
		commands: make(chan command),
		done:     make(chan struct{}),
		current:  initial,
		subs:     make(map[int]chan state.State),
	}
}

// Run processes triggers and commands until ctx is cancelled.
func (r *Runner) Run(ctx context.Context, triggers <-chan scheduler.Trigger) {
	defer r.once.Do(func() { close(r.done) })
	r.log.Info().Msg("Runner started")

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("Runner stopped")
			return
		case tr, ok := <-triggers:
			if !ok {
				triggers = nil
				continue
			}
			kind, err := state.ParseKind(tr.Name)
			if err != nil {
				r.log.Warn().Err(err).Msg("Ignoring trigger")
				continue
			}
			r.tick(ctx, kind, tr.At)
		case cmd := <-r.commands:
			cmd.reply <- r.apply(cmd.ev)
		}
	}
}

// Dispatch hands ev to the run loop and returns the state after it was
// applied.
func (r *Runner) Dispatch(ctx context.Context, ev state.Event) (state.State, error) {
	cmd := command{ev: ev, reply: make(chan state.State, 1)}
	select {
	case r.commands <- cmd:
	case <-r.done:
		return state.State{}, ErrStopped
	case <-ctx.Done():
		return state.State{}, ctx.Err()
	}
	return <-cmd.reply, nil
}

// State returns the latest state.
func (r *Runner) State() state.State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// LastSnapshot returns the most recent raw snapshot pulled from the source.
func (r *Runner) LastSnapshot() (feed.Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSnap, !r.lastSnap.Taken.IsZero()
}

// Subscribe registers for state updates. Slow subscribers only ever see the
// newest state. Call the returned function to unsubscribe.
func (r *Runner) Subscribe() (<-chan state.State, func()) {
	ch := make(chan state.State, 1)

	r.subsMu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = ch
	r.subsMu.Unlock()

	return ch, func() {
		r.subsMu.Lock()
		defer r.subsMu.Unlock()
		if _, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(ch)
		}
	}
}

func (r *Runner) tick(ctx context.Context, kind state.Kind, at time.Time) {
	start := time.Now()

	r.metrics.FeedFetches().Inc()
	snap, err := r.source.Next(ctx)
	if errors.Is(err, feed.ErrUnchanged) {
		r.log.Debug().Str("kind", kind.String()).Msg("Feed has not advanced, skipping tick")
		return
	}
	if err != nil {
		if ctx.Err() == nil {
			r.metrics.FeedErrors().Inc()
			r.log.Warn().Err(err).Str("kind", kind.String()).Msg("Snapshot fetch failed, keeping previous state")
		}
		return
	}

	r.mu.Lock()
	r.lastSnap = snap
	r.mu.Unlock()

	r.apply(state.Event{Kind: kind, At: at, Snapshot: snap})
	r.metrics.TickDuration().Observe(time.Since(start).Seconds())
}

func (r *Runner) apply(ev state.Event) state.State {
	r.mu.Lock()
	next := state.Reduce(r.current, ev)
	r.current = next
	r.mu.Unlock()

	v := next.Views
	r.metrics.Tick(ev.Kind.String()).Inc()
	r.metrics.UpdatePanels(v.Market, v.Valuation, v.Risk.Overall, v.Signals)
	r.record(ev, next)
	r.publish(next)

	r.log.Debug().
		Str("kind", ev.Kind.String()).
		Float64("portfolio_value", v.Valuation.TotalValue).
		Str("risk", v.Risk.Overall.String()).
		Msg("State updated")
	return next
}

func (r *Runner) record(ev state.Event, s state.State) {
	if r.recorder == nil {
		return
	}
	at := s.Updated
	if at.IsZero() {
		at = time.Now()
	}

	var err error
	switch ev.Kind {
	case state.MarketTick:
		err = r.recorder.StoreSummary(at, s.Views.Market)
	case state.PortfolioTick:
		err = r.recorder.StoreValuation(at, s.Views.Valuation)
	case state.RiskTick:
		err = r.recorder.StoreRisk(at, s.Views.Risk)
	}
	if err != nil {
		r.log.Error().Err(err).Str("kind", ev.Kind.String()).Msg("Failed to record history")
	}
}

func (r *Runner) publish(s state.State) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()

	for _, ch := range r.subs {
		select {
		case ch <- s:
		default:
			// drop the stale update and replace it
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
}
