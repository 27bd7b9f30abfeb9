package store

import (
	"github.com/roach88/popframe/internal/harness"
)

// Run is one journalled run.
type Run struct {
	ID            string            `json:"id"`
	Seq           int64             `json:"seq"`
	Scenario      string            `json:"scenario,omitempty"` // empty for a plain run
	Code          string            `json:"code"`
	Outcome       string            `json:"outcome"`
	Message       string            `json:"message,omitempty"`
	Joined        bool              `json:"joined"`
	Entries       int               `json:"entries"`
	Fields        map[string]string `json:"fields"` // empty unless Joined
	Notifications int               `json:"notifications"`
	Steps         []Step            `json:"steps,omitempty"` // nil in ListRuns results
}

// Step is one controller step of a journalled run.
type Step struct {
	Seq    int64  `json:"seq"`
	Op     string `json:"op"`
	Status string `json:"status,omitempty"`
}

// NewRun converts a harness result into a journal record. ID and Seq are
// assigned by WriteRun.
func NewRun(scenario string, r *harness.Result) Run {
	run := Run{
		Scenario:      scenario,
		Code:          r.Code.String(),
		Outcome:       string(r.Outcome),
		Message:       r.Message,
		Joined:        r.Joined,
		Entries:       r.Entries,
		Fields:        map[string]string{},
		Notifications: r.Notifications,
		Steps:         make([]Step, len(r.Steps)),
	}
	if r.Joined {
		run.Fields = r.Fields.Values()
	}
	for i, s := range r.Steps {
		run.Steps[i] = Step{Seq: s.Seq, Op: s.Op, Status: s.Status}
	}
	return run
}
