// Package events records the per-attempt timeline of continuation steps.
package events

import (
	"sync"
	"time"

	"github.com/continuum-pay/continuum/pkg/types"
)

// Recorder is an in-memory, append-only attempt timeline. The core owns no
// persisted state; the recorder exists for diagnostics and the sandbox
// events endpoint.
type Recorder struct {
	mu     sync.RWMutex
	events []types.Event
	max    int
}

const defaultMaxEvents = 1024

// NewRecorder creates an empty recorder retaining at most max events
// (oldest dropped first). max <= 0 uses the default cap.
func NewRecorder(max int) *Recorder {
	if max <= 0 {
		max = defaultMaxEvents
	}
	return &Recorder{max: max}
}

// Append adds an event, stamping the time if unset.
func (r *Recorder) Append(event types.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	if len(r.events) > r.max {
		r.events = r.events[len(r.events)-r.max:]
	}
}

// ForAttempt returns the recorded events for one attempt, in order.
func (r *Recorder) ForAttempt(attemptID string) []types.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []types.Event
	for _, e := range r.events {
		if e.AttemptID == attemptID {
			out = append(out, e)
		}
	}
	return out
}

// All returns a copy of every recorded event, in order.
func (r *Recorder) All() []types.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]types.Event(nil), r.events...)
}
