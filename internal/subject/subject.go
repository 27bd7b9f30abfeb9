// Package subject implements the worker whose instrumented method gets its
// frame popped.
//
// The Subject opens a starting gate, enters activeMethod through
// frame.Invoke, writes the global field set, announces that it is parked
// and waits at a safepoint. After the controller pops the frame and resumes
// the thread, activeMethod is re-entered and checks that its arguments were
// restored.
package subject

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/roach88/popframe/internal/frame"
	"github.com/roach88/popframe/internal/verdict"
)

// MethodName is the name of the instrumented method on the frame stack.
const MethodName = "activeMethod"

// Args is the argument tuple of the instrumented method.
type Args struct {
	Bool   bool
	Byte   int8
	Short  int16
	Int    int32
	Long   int64
	Float  float32
	Double float64
	Char   rune
	String string
}

// CallArgs returns the arguments activeMethod is called with.
func CallArgs() Args {
	return Args{
		Bool:   true,
		Byte:   1,
		Short:  2,
		Int:    3,
		Long:   4,
		Float:  5.1,
		Double: 6.2,
		Char:   'a',
		String: "activeMethod arg",
	}
}

// MutatedArgs returns the values activeMethod assigns to its arguments.
func MutatedArgs() Args {
	return Args{
		Bool:   false,
		Byte:   math.MaxInt8,
		Short:  math.MaxInt16,
		Int:    math.MaxInt32,
		Long:   math.MaxInt64,
		Float:  math.MaxFloat32,
		Double: math.MaxFloat64,
		Char:   'z',
		String: "mutated",
	}
}

// Report is what the Subject hands to the controller after it terminated.
type Report struct {
	Fields  Fields
	Tally   verdict.Code
	Entries int
}

// Subject is the worker under test.
//
// fields, tally and entries are written only by the worker goroutine and
// read only through Join, after the goroutine has terminated.
type Subject struct {
	thread *frame.Thread
	out    io.Writer
	logger *slog.Logger

	started   chan struct{}
	startOnce sync.Once
	parked    chan struct{}
	parkOnce  sync.Once
	isParked  atomic.Bool
	popDone   atomic.Bool
	abandoned atomic.Bool

	fields    Fields
	tally     verdict.Code
	entries   int
	fieldHook func(*Fields)
}

// New creates a Subject on a new, unstarted thread.
func New(name string, out io.Writer, logger *slog.Logger) *Subject {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Subject{
		thread:  frame.NewThread(name),
		out:     out,
		logger:  logger,
		started: make(chan struct{}),
		parked:  make(chan struct{}),
		fields:  InitialFields(),
		tally:   verdict.Passed,
	}
}

// Thread returns the thread the Subject runs on.
func (s *Subject) Thread() *frame.Thread {
	return s.thread
}

// SetFieldHook installs fn to run on the worker goroutine right after the
// first entry wrote the global fields. Tests use it to corrupt the writes.
// Must be called before Start.
func (s *Subject) SetFieldHook(fn func(*Fields)) {
	s.fieldHook = fn
}

// Start starts the worker thread.
func (s *Subject) Start() error {
	return s.thread.Start(s.run)
}

// Started is closed once the worker is running.
func (s *Subject) Started() <-chan struct{} {
	return s.started
}

// Parked is closed once the worker waits inside activeMethod.
func (s *Subject) Parked() <-chan struct{} {
	return s.parked
}

// IsParked reports whether the worker is currently parked.
func (s *Subject) IsParked() bool {
	return s.isParked.Load()
}

// PopFrameHasBeenDone tells the worker that the pop attempt completed,
// successfully or not, so that it can leave its wait once resumed.
func (s *Subject) PopFrameHasBeenDone() {
	s.popDone.Store(true)
	s.thread.Notify()
}

// Release lets a parked worker terminate without a pop. Used when the run
// is abandoned before any frame operation was applied.
func (s *Subject) Release() {
	s.abandoned.Store(true)
	s.thread.Notify()
}

// Join waits for the worker to terminate and transfers its state.
func (s *Subject) Join(ctx context.Context) (Report, error) {
	if err := s.thread.Join(ctx); err != nil {
		return Report{}, err
	}
	return Report{Fields: s.fields, Tally: s.tally, Entries: s.entries}, nil
}

func (s *Subject) run(t *frame.Thread) {
	s.printf("subject (%s): starting", t.Name())
	s.startOnce.Do(func() { close(s.started) })

	frame.Invoke(t, MethodName, CallArgs(), s.activeMethod)

	s.printf("subject (%s): exiting", t.Name())
}

func (s *Subject) activeMethod(args *Args) {
	s.entries++
	s.logger.Debug("enter activeMethod", "entry", s.entries, "pop_done", s.popDone.Load())

	// Re-entry leaves the globals alone: the final check then proves the
	// first entry's writes survived the pop.
	if s.popDone.Load() {
		s.printf("subject (%s): enter activeMethod() after popping", s.thread.Name())
		s.checkArgs(args)
		return
	}

	// Writes outside the frame; a pop must not undo them.
	s.fields.Byte = 2
	s.fields.Short = 3
	s.fields.Int = 4
	s.fields.Long = 5
	s.fields.Float = 6.2
	s.fields.Double = 7.35
	s.fields.Char = 'b'
	s.fields.Boolean = true
	s.fields.String = "sttc glbl fld"
	if s.fieldHook != nil {
		s.fieldHook(&s.fields)
	}

	*args = MutatedArgs()

	s.printf("subject (%s): inside activeMethod(), parking", s.thread.Name())
	s.isParked.Store(true)
	// A pop unwinds from inside WaitUntil.
	defer s.isParked.Store(false)
	s.parkOnce.Do(func() { close(s.parked) })

	s.thread.WaitUntil(func() bool {
		return s.popDone.Load() || s.abandoned.Load()
	})

	if s.abandoned.Load() && !s.popDone.Load() {
		s.printf("subject (%s): released without a frame operation", s.thread.Name())
		return
	}
	s.printf("TEST FAILED: activeMethod() was released but its frame was not popped")
	s.tally = verdict.Failed
}

func (s *Subject) checkArgs(args *Args) {
	if want := CallArgs(); *args != want {
		s.printf("TEST FAILED: arguments of the popped frame's method were not restored:\n"+
			"\tgot:      %+v\n\texpected: %+v", *args, want)
		s.tally = verdict.Failed
	} else {
		s.printf("Check #1 PASSED: arguments of the popped frame's method were restored")
	}

	*args = MutatedArgs()
	if want := MutatedArgs(); *args != want {
		s.printf("TEST FAILED: changes to the arguments of the re-entered method did not take effect:\n"+
			"\tgot:      %+v\n\texpected: %+v", *args, want)
		s.tally = verdict.Failed
	} else {
		s.printf("Check #2 PASSED: changes to the arguments of the re-entered method took effect")
	}
}

func (s *Subject) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format+"\n", a...)
}
