package harness

import (
	"fmt"
	"sync"

	"github.com/roach88/popframe/internal/frame"
	"github.com/roach88/popframe/internal/trace"
)

// Fault names the service operation a FaultService refuses.
type Fault string

const (
	FaultNone    Fault = ""
	FaultSuspend Fault = "suspend"
	FaultPop     Fault = "pop"
	FaultResume  Fault = "resume"
)

// ParseFault validates a fault name.
func ParseFault(s string) (Fault, error) {
	switch f := Fault(s); f {
	case FaultNone, FaultSuspend, FaultPop, FaultResume:
		return f, nil
	default:
		return FaultNone, fmt.Errorf("unknown fault %q", s)
	}
}

// Call is one operation received by a FaultService.
type Call struct {
	Seq    int64
	Op     string
	Status frame.Status
}

// FaultService wraps a frame.Service, records every call in order and
// makes the configured operation fail with frame.StatusInternal without
// forwarding it.
type FaultService struct {
	inner frame.Service
	fault Fault
	clock SeqClock

	mu        sync.Mutex
	calls     []Call
	suspended map[*frame.Thread]bool
}

// NewFaultService creates a FaultService. clock stamps calls; it may be
// shared with the controller so that calls and steps share one order.
func NewFaultService(inner frame.Service, fault Fault, clock SeqClock) *FaultService {
	if clock == nil {
		clock = trace.NewClock()
	}
	return &FaultService{
		inner:     inner,
		fault:     fault,
		clock:     clock,
		suspended: make(map[*frame.Thread]bool),
	}
}

// Suspend implements frame.Service.
func (f *FaultService) Suspend(t *frame.Thread) frame.Status {
	st := f.apply(FaultSuspend, t, f.inner.Suspend)
	if st.OK() {
		f.mu.Lock()
		f.suspended[t] = true
		f.mu.Unlock()
	}
	return st
}

// PopFrame implements frame.Service.
func (f *FaultService) PopFrame(t *frame.Thread) frame.Status {
	return f.apply(FaultPop, t, f.inner.PopFrame)
}

// Resume implements frame.Service.
func (f *FaultService) Resume(t *frame.Thread) frame.Status {
	st := f.apply(FaultResume, t, f.inner.Resume)
	if st.OK() {
		f.mu.Lock()
		delete(f.suspended, t)
		f.mu.Unlock()
	}
	return st
}

// SetListener forwards to the wrapped service when it is a frame.Notifier.
func (f *FaultService) SetListener(t *frame.Thread, l frame.Listener) {
	if n, ok := f.inner.(frame.Notifier); ok {
		n.SetListener(t, l)
	}
}

// Calls returns the recorded calls in order.
func (f *FaultService) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallOps returns the names of the recorded calls in order.
func (f *FaultService) CallOps() []string {
	calls := f.Calls()
	ops := make([]string, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}

// Restore resumes every thread the wrapped service still holds suspended
// because a resume was refused. It bypasses the fault.
func (f *FaultService) Restore() {
	f.mu.Lock()
	threads := make([]*frame.Thread, 0, len(f.suspended))
	for t := range f.suspended {
		threads = append(threads, t)
	}
	f.suspended = make(map[*frame.Thread]bool)
	f.mu.Unlock()

	for _, t := range threads {
		f.inner.Resume(t)
	}
}

func (f *FaultService) apply(fault Fault, t *frame.Thread, op func(*frame.Thread) frame.Status) frame.Status {
	st := frame.StatusInternal
	if f.fault != fault {
		st = op(t)
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{Seq: f.clock.Next(), Op: opName(fault), Status: st})
	f.mu.Unlock()
	return st
}

func opName(f Fault) string {
	switch f {
	case FaultSuspend:
		return StepSuspend
	case FaultPop:
		return StepPopFrame
	case FaultResume:
		return StepResume
	default:
		return string(f)
	}
}

var (
	_ frame.Service  = (*FaultService)(nil)
	_ frame.Notifier = (*FaultService)(nil)
)
