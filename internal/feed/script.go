package feed

import (
	"context"
	"sync"
)

// Script replays a fixed list of snapshots in order. With Loop set it starts
// over after the last one, otherwise it returns ErrExhausted.
type Script struct {
	Snapshots []Snapshot
	Loop      bool

	mu  sync.Mutex
	pos int
}

// NewScript returns a Script that stops after the given snapshots.
func NewScript(snaps ...Snapshot) *Script {
	return &Script{Snapshots: snaps}
}

// Next returns the next scripted snapshot.
func (s *Script) Next(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= len(s.Snapshots) {
		if !s.Loop || len(s.Snapshots) == 0 {
			return Snapshot{}, ErrExhausted
		}
		s.pos = 0
	}
	snap := s.Snapshots[s.pos]
	s.pos++
	return snap, nil
}
