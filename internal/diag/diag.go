// Package diag keeps a bounded in-memory log of notable pipeline events
// (encoding refreshes, stale discards, retry decisions) for the debug
// endpoint. It replaces scattering ad-hoc globals around the views.
package diag

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity bounds the ring; older events fall off.
const DefaultCapacity = 200

// Event is one recorded diagnostic.
type Event struct {
	ID      string         `json:"id"`
	Time    time.Time      `json:"time"`
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Detail  map[string]any `json:"detail,omitempty"`
}

// Recorder is a fixed-capacity ring of events, newest last. Safe for
// concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	cap    int
}

// NewRecorder returns a ring holding at most capacity events;
// capacity <= 0 uses DefaultCapacity.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{cap: capacity}
}

// Record appends an event, evicting the oldest past capacity, and returns
// the assigned id.
func (r *Recorder) Record(kind, message string, detail map[string]any) string {
	ev := Event{
		ID:      uuid.NewString(),
		Time:    time.Now().UTC(),
		Kind:    kind,
		Message: message,
		Detail:  detail,
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	if len(r.events) > r.cap {
		r.events = r.events[len(r.events)-r.cap:]
	}
	r.mu.Unlock()
	return ev.ID
}

// Events returns a snapshot, oldest first.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Clear empties the ring.
func (r *Recorder) Clear() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
