package frame

import (
	"context"
	"errors"
	"sync"
)

// ErrAlreadyStarted is returned by Start when the thread was started before.
var ErrAlreadyStarted = errors.New("thread already started")

// State is the lifecycle state of a Thread.
type State int

const (
	StateNew State = iota
	StateRunnable
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateRunnable:
		return "runnable"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// FrameInfo describes one activation on a thread's stack.
type FrameInfo struct {
	Method string
	Depth  int
	Opaque bool
}

type activation struct {
	method string
	depth  int
	opaque bool
}

// popSignal unwinds the stack down to the activation at depth.
type popSignal struct {
	depth int
}

// Thread is a goroutine with an explicit frame stack and safepoints.
//
// The frame-control fields are guarded by mu. cond is broadcast whenever
// any of them changes, and whenever Notify is called.
type Thread struct {
	name string
	done chan struct{}

	mu          sync.Mutex
	cond        *sync.Cond
	state       State
	suspendReq  bool
	atSafepoint bool
	frames      []*activation
	popTo       int // depth of the activation to re-enter, -1 if none
	listener    Listener
}

// NewThread creates a thread that has not been started.
func NewThread(name string) *Thread {
	t := &Thread{
		name:  name,
		done:  make(chan struct{}),
		popTo: -1,
	}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// Name returns the thread name.
func (t *Thread) Name() string {
	return t.name
}

// State returns the current lifecycle state.
func (t *Thread) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start runs body on a new goroutine. The body executes inside an opaque
// root frame which can never be popped.
func (t *Thread) Start(body func(t *Thread)) error {
	t.mu.Lock()
	if t.state != StateNew {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	t.state = StateRunnable
	t.frames = append(t.frames, &activation{method: t.name, depth: 0, opaque: true})
	t.mu.Unlock()

	go func() {
		defer t.exit()
		body(t)
	}()
	return nil
}

func (t *Thread) exit() {
	t.mu.Lock()
	t.state = StateTerminated
	t.frames = nil
	t.popTo = -1
	t.cond.Broadcast()
	t.mu.Unlock()
	close(t.done)
}

// Done is closed when the thread body has returned.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// Join waits for the thread to terminate or for ctx to be done.
func (t *Thread) Join(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Suspended reports whether a suspension is in effect.
func (t *Thread) Suspended() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.suspendReq
}

// Stack returns a snapshot of the frames, outermost first.
func (t *Thread) Stack() []FrameInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]FrameInfo, len(t.frames))
	for i, f := range t.frames {
		out[i] = FrameInfo{Method: f.method, Depth: f.depth, Opaque: f.opaque}
	}
	return out
}

// Notify wakes the thread if it is waiting in WaitUntil so that it
// re-evaluates its condition.
func (t *Thread) Notify() {
	t.mu.Lock()
	t.cond.Broadcast()
	t.mu.Unlock()
}

// Safepoint lets a pending suspension or frame pop take effect.
// Must only be called from the thread's own goroutine.
func (t *Thread) Safepoint() {
	t.WaitUntil(func() bool { return true })
}

// WaitUntil blocks until ready returns true. The whole wait is a safepoint:
// the thread counts as suspended as soon as a suspension is requested, and
// a popped frame unwinds from here once the thread is resumed.
//
// ready is evaluated with the thread's lock held; it must not call back into
// the Thread. Whoever changes the state ready observes must call Notify.
// Must only be called from the thread's own goroutine.
func (t *Thread) WaitUntil(ready func() bool) {
	t.mu.Lock()
	t.atSafepoint = true
	t.cond.Broadcast()
	for {
		if !t.suspendReq {
			if t.popTo >= 0 {
				sig := &popSignal{depth: t.popTo}
				t.popTo = -1
				t.atSafepoint = false
				t.mu.Unlock()
				panic(sig)
			}
			if ready() {
				break
			}
		}
		t.cond.Wait()
	}
	t.atSafepoint = false
	t.mu.Unlock()
}

// SetListener attaches l to the thread. A nil listener disables
// notifications.
func (t *Thread) SetListener(l Listener) {
	t.mu.Lock()
	t.listener = l
	t.mu.Unlock()
}

func (t *Thread) post(e Event) {
	t.mu.Lock()
	l := t.listener
	t.mu.Unlock()
	if l == nil {
		return
	}
	e.Thread = t.name
	l.Notify(e)
}

func (t *Thread) push(method string) *activation {
	t.mu.Lock()
	defer t.mu.Unlock()
	a := &activation{method: method, depth: len(t.frames)}
	t.frames = append(t.frames, a)
	return a
}

// truncate discards the activation at depth and everything above it.
func (t *Thread) truncate(depth int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := depth; i < len(t.frames); i++ {
		t.frames[i] = nil
	}
	if depth < len(t.frames) {
		t.frames = t.frames[:depth]
	}
}

func (t *Thread) suspend() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunnable {
		return StatusThreadNotAlive
	}
	if t.suspendReq {
		return StatusThreadSuspended
	}

	t.suspendReq = true
	t.cond.Broadcast()
	for !t.atSafepoint && t.state == StateRunnable {
		t.cond.Wait()
	}
	if t.state != StateRunnable {
		t.suspendReq = false
		return StatusThreadNotAlive
	}
	return StatusNone
}

func (t *Thread) resume() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunnable {
		return StatusThreadNotAlive
	}
	if !t.suspendReq {
		return StatusThreadNotSuspended
	}
	t.suspendReq = false
	t.cond.Broadcast()
	return StatusNone
}

func (t *Thread) popFrame() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunnable {
		return StatusThreadNotAlive
	}
	if !t.suspendReq {
		return StatusThreadNotSuspended
	}

	// Consecutive pops walk down the stack without unwinding yet.
	idx := len(t.frames) - 1
	if t.popTo >= 0 {
		idx = t.popTo - 1
	}
	if idx < 1 {
		return StatusNoMoreFrames
	}
	if t.frames[idx].opaque {
		return StatusOpaqueFrame
	}
	t.popTo = idx
	return StatusNone
}
