package harness

import (
	"github.com/roach88/popframe/internal/subject"
	"github.com/roach88/popframe/internal/verdict"
)

// Outcome classifies a verdict. Incomplete runs still carry verdict.Failed
// but are distinguished from correctness failures.
type Outcome string

const (
	OutcomePassed     Outcome = "passed"
	OutcomeFailed     Outcome = "failed"
	OutcomeIncomplete Outcome = "incomplete"
)

// Step operation names. The frame-control calls use the names of the
// service operations.
const (
	StepStart    = "start"
	StepStarted  = "started"
	StepParked   = "parked"
	StepSuspend  = "suspend"
	StepPopFrame = "popFrame"
	StepNotify   = "notify"
	StepResume   = "resume"
	StepJoin     = "join"
	StepVerify   = "verify"
)

// Step is one controller action in execution order.
type Step struct {
	Seq    int64  `json:"seq"`
	Op     string `json:"op"`
	Status string `json:"status,omitempty"` // service status for frame-control calls
}

// Result is the outcome of one controller run.
type Result struct {
	// Code is PASSED or FAILED.
	Code verdict.Code `json:"code"`

	// Outcome separates incomplete runs from correctness failures.
	Outcome Outcome `json:"outcome"`

	// Message is the failure diagnostic. Empty when the run passed.
	Message string `json:"message,omitempty"`

	// Fields is the field set handed over by the subject after join.
	// Zero value if the run ended before join.
	Fields subject.Fields `json:"-"`

	// Joined reports whether Fields is meaningful.
	Joined bool `json:"joined"`

	// Entries is how often the subject entered the instrumented method.
	Entries int `json:"entries"`

	// Mismatches lists every field that differs from its expected literal.
	Mismatches []subject.Mismatch `json:"mismatches,omitempty"`

	// Steps is the ordered controller trace.
	Steps []Step `json:"steps"`

	// Notifications counts notifications observed by the monitor while the
	// subject was suspended. Always zero when the monitor is disabled.
	Notifications int `json:"notifications"`
}

func newResult() *Result {
	return &Result{
		Code:    verdict.Passed,
		Outcome: OutcomePassed,
		Steps:   []Step{},
	}
}

// Pass reports whether the run passed.
func (r *Result) Pass() bool {
	return r.Code == verdict.Passed
}

// Calls returns the frame-control operations the controller issued, in
// order.
func (r *Result) Calls() []string {
	var calls []string
	for _, s := range r.Steps {
		switch s.Op {
		case StepSuspend, StepPopFrame, StepResume:
			calls = append(calls, s.Op)
		}
	}
	return calls
}

func (r *Result) fail(outcome Outcome, message string) *Result {
	r.Code = verdict.Failed
	r.Outcome = outcome
	r.Message = message
	return r
}
