package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/roach88/popframe/internal/frame"
	"github.com/roach88/popframe/internal/subject"
	"github.com/roach88/popframe/internal/trace"
	"github.com/roach88/popframe/internal/verdict"
)

// DefaultThreadName is the name of the subject's thread.
const DefaultThreadName = "Tested Thread"

// DefaultJoinTimeout bounds the controller's wait for the subject.
const DefaultJoinTimeout = 30 * time.Second

// SeqClock stamps controller steps. Implemented by trace.Clock and
// testutil.DeterministicClock.
type SeqClock interface {
	Next() int64
}

// Config configures one run.
type Config struct {
	// Out receives the progress narrative and failure diagnostics.
	Out io.Writer

	// Logger receives structured debug logs. Defaults to a discard handler.
	Logger *slog.Logger

	// Service performs suspend, pop-frame and resume. Defaults to a
	// frame.Agent.
	Service frame.Service

	// ThreadName names the subject's thread.
	ThreadName string

	// JoinTimeout bounds the wait for the subject to reach its checkpoints
	// and to terminate. Zero means DefaultJoinTimeout.
	JoinTimeout time.Duration

	// WatchNotifications attaches a monitor to the subject's thread when
	// the service implements frame.Notifier, and fails the run if the
	// suspend/pop/resume window produced any notification.
	WatchNotifications bool

	// Clock stamps steps. Defaults to a fresh trace.Clock.
	Clock SeqClock

	fieldHook func(*subject.Fields)
}

func (c Config) withDefaults() Config {
	if c.Out == nil {
		c.Out = io.Discard
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Service == nil {
		c.Service = frame.NewAgent(c.Logger)
	}
	if c.ThreadName == "" {
		c.ThreadName = DefaultThreadName
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = DefaultJoinTimeout
	}
	if c.Clock == nil {
		c.Clock = trace.NewClock()
	}
	return c
}

// controller drives one run. It is used once and discarded.
type controller struct {
	cfg    Config
	out    io.Writer
	result *Result
}

// Run executes the suspend/pop/resume scenario and verifies its
// post-conditions. The returned error is reserved for failures to set up
// the run; every verdict, including failures of the frame-control service,
// is reported through the Result.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	out := &lockedWriter{w: cfg.Out}
	// A subject that is still wedged when Run returns must not write into
	// a sink the caller already reads.
	defer out.seal()
	c := &controller{
		cfg:    cfg,
		out:    out,
		result: newResult(),
	}
	return c.run(ctx)
}

func (c *controller) run(ctx context.Context) (*Result, error) {
	svc := c.cfg.Service
	subj := subject.New(c.cfg.ThreadName, c.out, c.cfg.Logger)
	thread := subj.Thread()
	if c.cfg.fieldHook != nil {
		subj.SetFieldHook(c.cfg.fieldHook)
	}

	var mon *monitor
	if c.cfg.WatchNotifications {
		if n, ok := svc.(frame.Notifier); ok {
			mon = newMonitor()
			n.SetListener(thread, mon)
		} else {
			c.cfg.Logger.Warn("service cannot attach listeners; notification monitor disabled")
		}
	}

	if err := subj.Start(); err != nil {
		return nil, fmt.Errorf("failed to start subject: %w", err)
	}
	c.step(StepStart, "")

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.JoinTimeout)
	defer cancel()

	if err := waitFor(waitCtx, subj.Started()); err != nil {
		subj.Release()
		return c.incomplete(err), nil
	}
	c.step(StepStarted, "")

	// Explicit handshake: the subject announces it is parked inside the
	// instrumented method before anything is suspended.
	if err := waitFor(waitCtx, subj.Parked()); err != nil {
		subj.Release()
		return c.incomplete(err), nil
	}
	c.step(StepParked, "")

	c.printf("Going to suspend the thread...")
	mon.open()
	st := svc.Suspend(thread)
	c.step(StepSuspend, st.String())
	if !st.OK() {
		c.printf("TEST: failed to suspend thread")
		mon.close()
		subj.Release()
		c.drain(waitCtx, subj)
		return c.result.fail(OutcomeFailed, fmt.Sprintf("failed to suspend thread: %s", st)), nil
	}

	c.printf("Going to pop a frame...")
	popStatus := svc.PopFrame(thread)
	c.step(StepPopFrame, popStatus.String())

	// Unconditional, so the subject can leave its wait even if the pop
	// failed.
	subj.PopFrameHasBeenDone()
	c.step(StepNotify, "")

	if !popStatus.OK() {
		c.printf("TEST: failed to pop frame")
		mon.close()
		st = svc.Resume(thread)
		c.step(StepResume, st.String())
		if st.OK() {
			c.drain(waitCtx, subj)
		}
		return c.result.fail(OutcomeFailed, fmt.Sprintf("failed to pop frame: %s", popStatus)), nil
	}

	c.printf("Going to resume the thread...")
	// The window ends before resume: the re-entry notification is posted
	// as soon as the thread runs again.
	mon.close()
	st = svc.Resume(thread)
	c.step(StepResume, st.String())
	if !st.OK() {
		c.printf("TEST: failed to resume thread")
		return c.result.fail(OutcomeFailed, fmt.Sprintf("failed to resume thread: %s", st)), nil
	}

	joinCtx, joinCancel := context.WithTimeout(ctx, c.cfg.JoinTimeout)
	defer joinCancel()
	report, err := subj.Join(joinCtx)
	if err != nil {
		return c.incomplete(err), nil
	}
	c.step(StepJoin, "")

	c.result.Fields = report.Fields
	c.result.Joined = true
	c.result.Entries = report.Entries
	c.step(StepVerify, "")

	if mismatches := report.Fields.Compare(subject.ExpectedFields()); len(mismatches) > 0 {
		c.result.Mismatches = mismatches
		msg := mismatchReport(mismatches)
		c.printf("%s", msg)
		return c.result.fail(OutcomeFailed, msg), nil
	}
	c.printf("Check #6 PASSED: changes for the global fields,\n" +
		"\twhich have been made in the popped frame's method, remained")

	if mon != nil {
		c.result.Notifications = mon.inWindow()
		if problems := mon.verify(report.Entries); len(problems) > 0 {
			msg := "TEST FAILED: frame pop produced notifications:\n\t" + strings.Join(problems, "\n\t")
			c.printf("%s", msg)
			return c.result.fail(OutcomeFailed, msg), nil
		}
	}

	if report.Tally != verdict.Passed {
		return c.result.fail(OutcomeFailed, "subject reported a failed check on re-entry"), nil
	}
	return c.result, nil
}

func (c *controller) incomplete(err error) *Result {
	c.printf("TEST INCOMPLETE: caught %v", err)
	return c.result.fail(OutcomeIncomplete, fmt.Sprintf("incomplete: %v", err))
}

// drain waits for a released or resumed subject to terminate, so that its
// narrative is complete before the verdict is returned. It is not a step.
func (c *controller) drain(ctx context.Context, subj *subject.Subject) {
	if _, err := subj.Join(ctx); err != nil {
		c.cfg.Logger.Warn("subject did not terminate", "error", err)
	}
}

func (c *controller) step(op, status string) {
	seq := c.cfg.Clock.Next()
	c.result.Steps = append(c.result.Steps, Step{Seq: seq, Op: op, Status: status})
	c.cfg.Logger.Debug("controller step", "seq", seq, "op", op, "status", status)
}

func (c *controller) printf(format string, a ...any) {
	fmt.Fprintf(c.out, format+"\n", a...)
}

func waitFor(ctx context.Context, ch <-chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// mismatchReport formats every mismatching field in one message.
func mismatchReport(mismatches []subject.Mismatch) string {
	var b strings.Builder
	b.WriteString("TEST FAILED: changes for the global fields,\n")
	b.WriteString("\twhich have been made in the popped frame's method, did not remain:\n")
	b.WriteString("\tfield values:")
	for _, m := range mismatches {
		fmt.Fprintf(&b, "\n\t\t%s", m)
	}
	return b.String()
}

// lockedWriter serializes writes from the controller and the subject.
// Writes after seal are dropped.
type lockedWriter struct {
	mu     sync.Mutex
	w      io.Writer
	sealed bool
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sealed {
		return len(p), nil
	}
	return l.w.Write(p)
}

func (l *lockedWriter) seal() {
	l.mu.Lock()
	l.sealed = true
	l.mu.Unlock()
}
