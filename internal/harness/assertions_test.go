package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/popframe/internal/frame"
	"github.com/roach88/popframe/internal/verdict"
)

func passedRun() *ScenarioRun {
	return &ScenarioRun{
		Scenario: &Scenario{Name: "clean"},
		Result: &Result{
			Code:    verdict.Passed,
			Outcome: OutcomePassed,
			Joined:  true,
			Entries: 2,
			Steps: []Step{
				{Seq: 1, Op: StepStart},
				{Seq: 2, Op: StepStarted},
				{Seq: 3, Op: StepParked},
				{Seq: 5, Op: StepSuspend, Status: "NONE"},
				{Seq: 7, Op: StepPopFrame, Status: "NONE"},
				{Seq: 8, Op: StepNotify},
				{Seq: 10, Op: StepResume, Status: "NONE"},
				{Seq: 11, Op: StepJoin},
				{Seq: 12, Op: StepVerify},
			},
		},
		Calls: []Call{
			{Seq: 4, Op: StepSuspend, Status: frame.StatusNone},
			{Seq: 6, Op: StepPopFrame, Status: frame.StatusNone},
			{Seq: 9, Op: StepResume, Status: frame.StatusNone},
		},
	}
}

func TestEvaluateExpectation_AllMatch(t *testing.T) {
	exp := Expectation{
		Code:           "PASSED",
		Outcome:        "passed",
		Calls:          []string{"suspend", "popFrame", "resume"},
		SubjectEntries: 2,
	}
	assert.Empty(t, EvaluateExpectation(exp, passedRun()))
}

func TestEvaluateExpectation_CodeMismatch(t *testing.T) {
	errs := EvaluateExpectation(Expectation{Code: "FAILED"}, passedRun())
	require.Len(t, errs, 1)

	var assertErr *AssertionError
	require.ErrorAs(t, errs[0], &assertErr)
	assert.Equal(t, "code", assertErr.Type)
	assert.Equal(t, "FAILED", assertErr.Expected)
	assert.Contains(t, assertErr.Actual, "PASSED")
}

func TestEvaluateExpectation_OutcomeMismatch(t *testing.T) {
	errs := EvaluateExpectation(Expectation{Code: "PASSED", Outcome: "incomplete"}, passedRun())
	require.Len(t, errs, 1)

	var assertErr *AssertionError
	require.ErrorAs(t, errs[0], &assertErr)
	assert.Equal(t, "outcome", assertErr.Type)
	assert.Equal(t, "passed", assertErr.Actual)
}

func TestEvaluateExpectation_CallsMismatch(t *testing.T) {
	errs := EvaluateExpectation(Expectation{Code: "PASSED", Calls: []string{"suspend"}}, passedRun())
	require.Len(t, errs, 1)

	var assertErr *AssertionError
	require.ErrorAs(t, errs[0], &assertErr)
	assert.Equal(t, "calls", assertErr.Type)
	assert.Equal(t, "[suspend]", assertErr.Expected)
	assert.Equal(t, "[suspend popFrame resume]", assertErr.Actual)
}

func TestEvaluateExpectation_EmptyCallsMeansNone(t *testing.T) {
	run := passedRun()
	run.Calls = []Call{}
	assert.Empty(t, EvaluateExpectation(Expectation{Code: "PASSED", Calls: []string{}}, run))
}

func TestEvaluateExpectation_SubjectEntries(t *testing.T) {
	errs := EvaluateExpectation(Expectation{Code: "PASSED", SubjectEntries: 1}, passedRun())
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "Assertion failed: subject_entries")
}

func TestEvaluateExpectation_InvalidCode(t *testing.T) {
	errs := EvaluateExpectation(Expectation{Code: "MAYBE"}, passedRun())
	require.Len(t, errs, 1)
}

func TestAssertSuspendAfterRendezvous(t *testing.T) {
	assert.NoError(t, assertSuspendAfterRendezvous(passedRun().Result.Steps))
	assert.NoError(t, assertSuspendAfterRendezvous([]Step{{Seq: 1, Op: StepStart}}))

	early := []Step{
		{Seq: 1, Op: StepStart},
		{Seq: 2, Op: StepStarted},
		{Seq: 3, Op: StepSuspend, Status: "NONE"},
		{Seq: 4, Op: StepParked},
	}
	err := assertSuspendAfterRendezvous(early)
	require.Error(t, err)

	var assertErr *AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, "rendezvous_order", assertErr.Type)
	assert.Equal(t, "parked before suspend", assertErr.Expected)
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     "calls",
		Expected: "[suspend]",
		Actual:   "[]",
		Steps: []Step{
			{Seq: 1, Op: StepStart},
			{Seq: 5, Op: StepSuspend, Status: "INTERNAL"},
		},
	}

	want := "Assertion failed: calls\n" +
		"  Expected: [suspend]\n" +
		"  Actual: []\n" +
		"\nController trace:\n" +
		"  [1] start\n" +
		"  [5] suspend -> INTERNAL\n"
	assert.Equal(t, want, err.Error())
}
