package frame

import (
	"io"
	"log/slog"
)

// Service is the frame-control capability the harness drives.
// Each call blocks until the operation is applied or refused.
type Service interface {
	Suspend(t *Thread) Status
	PopFrame(t *Thread) Status
	Resume(t *Thread) Status
}

// Notifier is implemented by services that can attach a notification
// listener to a thread.
type Notifier interface {
	SetListener(t *Thread, l Listener)
}

// Agent is the cooperative Service implementation.
type Agent struct {
	logger *slog.Logger
}

// NewAgent creates an Agent. A nil logger discards output.
func NewAgent(logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Agent{logger: logger}
}

// Suspend blocks until t reaches a safepoint and stays there.
func (a *Agent) Suspend(t *Thread) Status {
	st := t.suspend()
	a.logger.Debug("suspend", "thread", t.Name(), "status", st)
	return st
}

// PopFrame marks the top frame of the suspended thread t for popping.
// The frame unwinds when t is resumed.
func (a *Agent) PopFrame(t *Thread) Status {
	st := t.popFrame()
	a.logger.Debug("pop frame", "thread", t.Name(), "status", st)
	return st
}

// Resume lifts the suspension of t.
func (a *Agent) Resume(t *Thread) Status {
	st := t.resume()
	a.logger.Debug("resume", "thread", t.Name(), "status", st)
	return st
}

// SetListener attaches l to t. Passing nil detaches.
func (a *Agent) SetListener(t *Thread, l Listener) {
	t.SetListener(l)
}

var (
	_ Service  = (*Agent)(nil)
	_ Notifier = (*Agent)(nil)
)
