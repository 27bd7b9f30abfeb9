package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/popframe/internal/trace"
)

// Snapshot converts a scenario run to a map for canonical JSON
// serialization. Field values are kept in their literal string form
// because canonical JSON forbids floats.
func Snapshot(run *ScenarioRun) map[string]any {
	steps := make([]any, len(run.Result.Steps))
	for i, s := range run.Result.Steps {
		step := map[string]any{
			"op":  s.Op,
			"seq": s.Seq,
		}
		if s.Status != "" {
			step["status"] = s.Status
		}
		steps[i] = step
	}

	calls := make([]any, len(run.Calls))
	for i, c := range run.Calls {
		calls[i] = c.Op
	}

	snap := map[string]any{
		"scenario": run.Scenario.Name,
		"code":     run.Result.Code.String(),
		"outcome":  string(run.Result.Outcome),
		"steps":    steps,
		"calls":    calls,
	}
	if run.Result.Joined {
		snap["entries"] = run.Result.Entries
		snap["fields"] = run.Result.Fields.Values()
	}
	return snap
}

// MarshalSnapshot returns the canonical JSON form of a scenario run.
// Two runs of the same scenario produce identical bytes.
func MarshalSnapshot(run *ScenarioRun) ([]byte, error) {
	return trace.MarshalCanonical(Snapshot(run))
}

// AssertGolden compares a scenario run against the golden file
// {dir}/{scenario name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, dir string, run *ScenarioRun) {
	t.Helper()

	data, err := MarshalSnapshot(run)
	if err != nil {
		t.Fatalf("failed to marshal snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, run.Scenario.Name, data)
}
