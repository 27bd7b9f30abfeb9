package harness

import (
	"fmt"
	"sync"

	"github.com/roach88/popframe/internal/frame"
	"github.com/roach88/popframe/internal/subject"
)

// monitor records notifications from the subject's thread and marks those
// that arrive while the controller holds the thread suspended.
//
// A nil *monitor is valid and records nothing.
type monitor struct {
	mu     sync.Mutex
	window bool
	events []frame.Event
	inWin  int
}

func newMonitor() *monitor {
	return &monitor{}
}

// Notify implements frame.Listener.
func (m *monitor) Notify(e frame.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	if m.window {
		m.inWin++
	}
}

func (m *monitor) open() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.window = true
	m.mu.Unlock()
}

func (m *monitor) close() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.window = false
	m.mu.Unlock()
}

func (m *monitor) inWindow() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inWin
}

// verify checks the notification stream of a completed run in which the
// instrumented method was entered entries times. Every entry after the
// first is a re-entry caused by a pop, and only the last activation may
// post an exit.
func (m *monitor) verify(entries int) []string {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var problems []string
	if m.inWin > 0 {
		problems = append(problems, fmt.Sprintf("%d notification(s) posted while the thread was suspended", m.inWin))
	}

	var exits, reentries int
	for _, e := range m.events {
		if e.Method != subject.MethodName {
			continue
		}
		switch {
		case e.Kind == frame.MethodExit:
			exits++
		case e.Kind == frame.MethodEntry && e.Reentry:
			reentries++
		}
	}
	if exits != 1 {
		problems = append(problems, fmt.Sprintf("%s posted %d method exit(s), expected 1", subject.MethodName, exits))
	}
	if reentries != entries-1 {
		problems = append(problems, fmt.Sprintf("%s posted %d re-entry notification(s), expected %d", subject.MethodName, reentries, entries-1))
	}
	return problems
}
