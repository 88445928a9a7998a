package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// FeedPath is where a dashboard publishes its latest raw snapshot.
const FeedPath = "/api/feed"

// Remote mirrors the snapshot stream of another dashboard over HTTP. The
// upstream only changes on its own ticks, so a snapshot whose Taken has not
// advanced since the last call is reported as ErrUnchanged.
type Remote struct {
	base string
	rest *resty.Client

	mu        sync.Mutex
	lastTaken time.Time
}

// NewRemote creates a client for the dashboard at base.
func NewRemote(base string, timeout time.Duration) *Remote {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second)
	}
	return &Remote{base: strings.TrimRight(base, "/"), rest: r}
}

// Next fetches the upstream's current snapshot.
func (r *Remote) Next(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	resp, err := r.rest.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetResult(&snap).
		Get(r.base + FeedPath)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch upstream snapshot: %w", err)
	}
	if resp.IsError() {
		return Snapshot{}, fmt.Errorf("upstream snapshot: %s", resp.Status())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !snap.Taken.IsZero() {
		if !snap.Taken.After(r.lastTaken) {
			return Snapshot{}, ErrUnchanged
		}
		r.lastTaken = snap.Taken
	}
	return snap, nil
}
