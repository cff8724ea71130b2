// Package stats provides a lightweight tracker that keeps aggregated engine
// counters (polls, dispatches, fallthroughs, …) for a single flagly instance.
// The tracker can also ride in the context so that every component receiving
// the context updates the counters via the Delta helper without requiring a
// global registry.

package stats

import (
	"context"
	"sync"
	"time"

	"github.com/viant/flagly/internal/clock"
)

// Delta represents an incremental counter change emitted by the poller or
// the dispatcher. The counter fields are signed and therefore can be either
// positive (increment) or negative (decrement). Err carries the failure of
// the poll attempt being recorded, if any.
type Delta struct {
	Polls        int
	PollFailures int
	Dispatched   int
	Routed       int
	FellThrough  int
	Err          error
}

// Snapshot is a read-only copy of the tracker counters.
type Snapshot struct {
	Project   string    `json:"project,omitempty"`
	StartedAt time.Time `json:"startedAt"`

	Polls         int       `json:"polls"`
	PollFailures  int       `json:"pollFailures"`
	Dispatched    int       `json:"dispatched"`
	Routed        int       `json:"routed"`
	FellThrough   int       `json:"fellThrough"`
	LastPollAt    time.Time `json:"lastPollAt,omitempty"`
	LastSuccessAt time.Time `json:"lastSuccessAt,omitempty"`
	LastError     string    `json:"lastError,omitempty"`
}

// Stats keeps aggregated counters for one engine instance. It is safe for
// concurrent use.
type Stats struct {
	project   string
	startedAt time.Time

	polls         int
	pollFailures  int
	dispatched    int
	routed        int
	fellThrough   int
	lastPollAt    time.Time
	lastSuccessAt time.Time
	lastError     string

	mux      sync.Mutex
	onChange func(Snapshot)
}

// New creates a tracker for the supplied project identifier.
func New(project string) *Stats {
	return &Stats{project: project, startedAt: clock.Now()}
}

// Update applies the supplied delta to the tracker. It is safe to call from
// multiple goroutines. If an onChange callback has been registered it will
// be invoked with a copy of the updated counters outside the critical
// section so that the callback can perform slow operations (e.g. JSON
// encoding, I/O) without blocking engine internals.
func (s *Stats) Update(d Delta) {
	if s == nil {
		return
	}
	s.mux.Lock()

	s.polls += d.Polls
	s.pollFailures += d.PollFailures
	s.dispatched += d.Dispatched
	s.routed += d.Routed
	s.fellThrough += d.FellThrough
	if d.Polls > 0 {
		s.lastPollAt = clock.Now()
		if d.PollFailures > 0 {
			if d.Err != nil {
				s.lastError = d.Err.Error()
			}
		} else {
			s.lastSuccessAt = s.lastPollAt
			s.lastError = ""
		}
	}

	snapshot := s.snapshot()
	cb := s.onChange

	s.mux.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters suitable for read-only inspection.
func (s *Stats) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.snapshot()
}

// snapshot assumes the caller holds the lock.
func (s *Stats) snapshot() Snapshot {
	return Snapshot{
		Project:       s.project,
		StartedAt:     s.startedAt,
		Polls:         s.polls,
		PollFailures:  s.pollFailures,
		Dispatched:    s.dispatched,
		Routed:        s.routed,
		FellThrough:   s.fellThrough,
		LastPollAt:    s.lastPollAt,
		LastSuccessAt: s.lastSuccessAt,
		LastError:     s.lastError,
	}
}

// OnChange registers a callback that is invoked after every Update. Passing
// nil disables the callback. Only one callback can be active; subsequent
// calls overwrite the previous value.
func (s *Stats) OnChange(cb func(Snapshot)) {
	if s == nil {
		return
	}
	s.mux.Lock()
	s.onChange = cb
	s.mux.Unlock()
}

// ----------------------------------------------------------------------------
// Context helpers
// ----------------------------------------------------------------------------

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a new Stats tracker, embeds it in a derived context
// and returns both. The caller may optionally pass an onChange callback that
// will be invoked after every counter update.
func WithNewTracker(ctx context.Context, project string, onChange func(Snapshot)) (context.Context, *Stats) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := New(project)
	tr.onChange = onChange
	return context.WithValue(ctx, trackerKey, tr), tr
}

// FromContext extracts the Stats tracker from ctx. It returns (tracker, ok).
// The second return value is false when the context carries no tracker.
func FromContext(ctx context.Context) (*Stats, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Stats)
	return tr, ok
}

// GetSnapshot is a convenience wrapper that combines FromContext and
// Snapshot. The boolean return value is false when the context does not
// carry a tracker.
func GetSnapshot(ctx context.Context) (Snapshot, bool) {
	if tr, ok := FromContext(ctx); ok {
		return tr.Snapshot(), true
	}
	return Snapshot{}, false
}

// UpdateCtx is a helper that looks up the tracker in ctx (if any) and
// applies the supplied delta.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
