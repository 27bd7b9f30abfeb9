package frame

import "sync"

// EventKind identifies a notification.
type EventKind int

const (
	// MethodEntry is posted when an Invoke frame is entered (or re-entered).
	MethodEntry EventKind = iota + 1
	// MethodExit is posted when an Invoke frame returns normally.
	MethodExit
)

func (k EventKind) String() string {
	switch k {
	case MethodEntry:
		return "method_entry"
	case MethodExit:
		return "method_exit"
	default:
		return "unknown"
	}
}

// Event is a notification posted by a thread.
type Event struct {
	Kind    EventKind
	Thread  string
	Method  string
	Depth   int
	Reentry bool // entry caused by a frame pop
}

// Listener receives notifications. Notify is called on the posting
// thread's goroutine and must not block.
type Listener interface {
	Notify(e Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(e Event)

// Notify calls f(e).
func (f ListenerFunc) Notify(e Event) {
	f(e)
}

// Recorder is a Listener that keeps every event in order.
//
// Thread-safety: Recorder is safe for concurrent use via internal mutex.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Notify records e.
func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
