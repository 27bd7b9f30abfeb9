package harness

import (
	"fmt"
	"reflect"
	"strings"
)

// AssertionError is returned when a scenario expectation does not hold.
// It includes the controller trace to help debug the failure.
type AssertionError struct {
	Type     string // expectation category
	Expected string
	Actual   string
	Steps    []Step
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Steps) > 0 {
		fmt.Fprintf(&buf, "\nController trace:\n")
		for _, s := range e.Steps {
			if s.Status != "" {
				fmt.Fprintf(&buf, "  [%d] %s -> %s\n", s.Seq, s.Op, s.Status)
			} else {
				fmt.Fprintf(&buf, "  [%d] %s\n", s.Seq, s.Op)
			}
		}
	}
	return buf.String()
}

// EvaluateExpectation checks a scenario run against its expectation and
// returns every violated expectation.
func EvaluateExpectation(exp Expectation, run *ScenarioRun) []error {
	var errs []error
	result := run.Result

	if code, err := exp.expectedCode(); err != nil {
		errs = append(errs, err)
	} else if result.Code != code {
		errs = append(errs, &AssertionError{
			Type:     "code",
			Expected: code.String(),
			Actual:   fmt.Sprintf("%s (%s)", result.Code, result.Message),
			Steps:    result.Steps,
		})
	}

	if exp.Outcome != "" && string(result.Outcome) != exp.Outcome {
		errs = append(errs, &AssertionError{
			Type:     "outcome",
			Expected: exp.Outcome,
			Actual:   string(result.Outcome),
			Steps:    result.Steps,
		})
	}

	if exp.Calls != nil {
		actual := make([]string, len(run.Calls))
		for i, c := range run.Calls {
			actual[i] = c.Op
		}
		if !reflect.DeepEqual(exp.Calls, actual) {
			errs = append(errs, &AssertionError{
				Type:     "calls",
				Expected: fmt.Sprintf("%v", exp.Calls),
				Actual:   fmt.Sprintf("%v", actual),
				Steps:    result.Steps,
			})
		}
	}

	if exp.SubjectEntries > 0 && result.Entries != exp.SubjectEntries {
		errs = append(errs, &AssertionError{
			Type:     "subject_entries",
			Expected: fmt.Sprintf("%d", exp.SubjectEntries),
			Actual:   fmt.Sprintf("%d", result.Entries),
			Steps:    result.Steps,
		})
	}

	if err := assertSuspendAfterRendezvous(result.Steps); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// assertSuspendAfterRendezvous checks that suspend, if issued, came after
// the subject both started and parked.
func assertSuspendAfterRendezvous(steps []Step) error {
	positions := make(map[string]int)
	for i, s := range steps {
		if _, seen := positions[s.Op]; !seen {
			positions[s.Op] = i
		}
	}

	suspendAt, ok := positions[StepSuspend]
	if !ok {
		return nil
	}
	for _, op := range []string{StepStarted, StepParked} {
		at, seen := positions[op]
		if !seen || at > suspendAt {
			return &AssertionError{
				Type:     "rendezvous_order",
				Expected: fmt.Sprintf("%s before %s", op, StepSuspend),
				Actual:   fmt.Sprintf("%s issued without %s", StepSuspend, op),
				Steps:    steps,
			}
		}
	}
	return nil
}
