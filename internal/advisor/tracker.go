package advisor

import (
	"sync"

	"github.com/theirongolddev/subtrack/internal/model"
)

// Ticket identifies one in-flight analysis.
type Ticket struct {
	Seq     uint64
	Version uint64
}

// Tracker allows one analysis in flight per collection version and keeps
// only results that are still current when they arrive.
type Tracker struct {
	mu       sync.Mutex
	seq      uint64
	inFlight *Ticket
	insights []model.Insight
	version  uint64
	have     bool
}

// Begin issues a ticket for version. It returns false when a request for
// the same version is already running.
func (t *Tracker) Begin(version uint64) (Ticket, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inFlight != nil && t.inFlight.Version == version {
		return *t.inFlight, false
	}
	t.seq++
	tk := Ticket{Seq: t.seq, Version: version}
	t.inFlight = &tk
	return tk, true
}

// Complete stores insights if tk is the latest ticket and nothing has
// invalidated it. It reports whether the result was kept.
func (t *Tracker) Complete(tk Ticket, insights []model.Insight) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inFlight == nil || t.inFlight.Seq != tk.Seq {
		return false
	}
	t.inFlight = nil
	t.insights = insights
	t.version = tk.Version
	t.have = true
	return true
}

// Invalidate drops insights computed for any version other than version and
// orphans an in-flight request for an older collection.
func (t *Tracker) Invalidate(version uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.have && t.version != version {
		t.insights, t.have = nil, false
	}
	if t.inFlight != nil && t.inFlight.Version != version {
		t.inFlight = nil
	}
}

// Current returns the kept insights, if any.
func (t *Tracker) Current() ([]model.Insight, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insights, t.have
}

// Busy reports whether a request is in flight.
func (t *Tracker) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight != nil
}
