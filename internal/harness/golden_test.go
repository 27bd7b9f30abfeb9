package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSnapshot_FailedRunOmitsFields(t *testing.T) {
	run := &ScenarioRun{
		Scenario: &Scenario{Name: "suspend-fails"},
		Result: &Result{
			Code:    2,
			Outcome: OutcomeFailed,
			Steps: []Step{
				{Seq: 1, Op: StepStart},
				{Seq: 5, Op: StepSuspend, Status: "INTERNAL"},
			},
		},
		Calls: []Call{{Seq: 4, Op: StepSuspend}},
	}

	data, err := MarshalSnapshot(run)
	require.NoError(t, err)
	assert.Equal(t,
		`{"calls":["suspend"],"code":"FAILED","outcome":"failed","scenario":"suspend-fails",`+
			`"steps":[{"op":"start","seq":1},{"op":"suspend","seq":5,"status":"INTERNAL"}]}`,
		string(data))
}

func TestMarshalSnapshot_Deterministic(t *testing.T) {
	s := &Scenario{Name: "clean-pop", Description: "clean", Expect: Expectation{Code: "PASSED"}}

	first, err := RunScenario(context.Background(), s, Config{})
	require.NoError(t, err)
	second, err := RunScenario(context.Background(), s, Config{})
	require.NoError(t, err)

	a, err := MarshalSnapshot(first)
	require.NoError(t, err)
	b, err := MarshalSnapshot(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Contains(t, string(a), `"stringField":"\"sttc glbl fld\""`)
}

func TestAssertGolden_MatchesFile(t *testing.T) {
	dir := t.TempDir()
	s := &Scenario{Name: "suspend-fails", Description: "refused", Fault: "suspend", Expect: Expectation{Code: "FAILED"}}

	run, err := RunScenario(context.Background(), s, Config{})
	require.NoError(t, err)

	data, err := MarshalSnapshot(run)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "suspend-fails.golden"), data, 0644))

	AssertGolden(t, dir, run)
}
