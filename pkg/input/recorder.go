package input

import (
	"sync"
	"time"
)

// Kind is the touch primitive a recorded event came from.
type Kind int

const (
	Start Kind = iota
	Move
	Release
)

func (k Kind) String() string {
	switch k {
	case Start:
		return "start"
	case Move:
		return "move"
	case Release:
		return "release"
	}
	return "unknown"
}

// Event is one recorded touch primitive.
type Event struct {
	Kind Kind
	X, Y int
	ID   int
}

// Recorder is an in-memory Transport that records every event.
// Sleeps passed through Sleep are recorded in the same stream so scripted
// gesture timing can be asserted without waiting.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	sleeps []time.Duration
	closed bool

	// Fail, when non-nil, is returned by every primitive after recording it.
	Fail error
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) PressStart(x, y, id int) error   { return r.record(Start, x, y, id) }
func (r *Recorder) PressMove(x, y, id int) error    { return r.record(Move, x, y, id) }
func (r *Recorder) PressRelease(x, y, id int) error { return r.record(Release, x, y, id) }

// Close marks the recorder closed; further primitives return ErrNotConnected.
func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// Sleep records d instead of blocking.
func (r *Recorder) Sleep(d time.Duration) {
	r.mu.Lock()
	r.sleeps = append(r.sleeps, d)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Sleeps returns a copy of the recorded sleeps.
func (r *Recorder) Sleeps() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.sleeps))
	copy(out, r.sleeps)
	return out
}

// Slept returns the sum of all recorded sleeps.
func (r *Recorder) Slept() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total time.Duration
	for _, d := range r.sleeps {
		total += d
	}
	return total
}

// Taps returns the release points of every tap on pointer id.
func (r *Recorder) Taps(id int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.ID == id && e.Kind == Release {
			out = append(out, e)
		}
	}
	return out
}

// Last returns the most recent event and false when nothing was recorded.
func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}

// Reset clears recorded events and sleeps.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.sleeps = nil
	r.mu.Unlock()
}

func (r *Recorder) record(k Kind, x, y, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrNotConnected
	}
	r.events = append(r.events, Event{Kind: k, X: x, Y: y, ID: id})
	return r.Fail
}
