package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/popframe/internal/harness"
	"github.com/roach88/popframe/internal/subject"
	"github.com/roach88/popframe/internal/verdict"
)

func passedResult() *harness.Result {
	return &harness.Result{
		Code:    verdict.Passed,
		Outcome: harness.OutcomePassed,
		Joined:  true,
		Entries: 2,
		Fields:  subject.ExpectedFields(),
		Steps: []harness.Step{
			{Seq: 1, Op: harness.StepStart},
			{Seq: 2, Op: harness.StepSuspend, Status: "NONE"},
		},
	}
}

func TestNewRun(t *testing.T) {
	run := NewRun("clean-pop", passedResult())

	assert.Equal(t, "clean-pop", run.Scenario)
	assert.Equal(t, "PASSED", run.Code)
	assert.Equal(t, "passed", run.Outcome)
	assert.True(t, run.Joined)
	assert.Equal(t, "7.35", run.Fields["doubleField"])
	assert.Equal(t, `"sttc glbl fld"`, run.Fields["stringField"])
	assert.Equal(t, []Step{{Seq: 1, Op: "start"}, {Seq: 2, Op: "suspend", Status: "NONE"}}, run.Steps)

	failed := NewRun("", &harness.Result{Code: verdict.Failed, Outcome: harness.OutcomeIncomplete})
	assert.Empty(t, failed.Fields)
	assert.NotNil(t, failed.Fields)
}

func TestWriteRun_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	id, err := s.WriteRun(ctx, NewRun("clean-pop", passedResult()))
	require.NoError(t, err)
	assert.Equal(t, "run-1", id)

	got, err := s.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Seq)
	assert.Equal(t, "clean-pop", got.Scenario)
	assert.Equal(t, "PASSED", got.Code)
	assert.True(t, got.Joined)
	assert.Equal(t, 2, got.Entries)
	assert.Equal(t, subject.ExpectedFields().Values(), got.Fields)
	assert.Equal(t, []Step{{Seq: 1, Op: "start"}, {Seq: 2, Op: "suspend", Status: "NONE"}}, got.Steps)
}

func TestWriteRun_FieldsAreCanonical(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	id, err := s.WriteRun(ctx, NewRun("", passedResult()))
	require.NoError(t, err)

	var fields string
	require.NoError(t, s.db.QueryRow("SELECT fields FROM runs WHERE id = ?", id).Scan(&fields))
	assert.Equal(t,
		`{"booleanField":"true","byteField":"2","charField":"'b'","doubleField":"7.35",`+
			`"floatField":"6.2","intField":"4","longField":"5","shortField":"3",`+
			`"stringField":"\"sttc glbl fld\""}`,
		fields)
}

func TestWriteRun_DuplicateIDIsIgnored(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	run := NewRun("", passedResult())
	run.ID = "fixed"
	_, err := s.WriteRun(ctx, run)
	require.NoError(t, err)

	run.Code = "FAILED"
	id, err := s.WriteRun(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, "fixed", id)

	got, err := s.GetRun(ctx, "fixed")
	require.NoError(t, err)
	assert.Equal(t, "PASSED", got.Code, "first write wins")
	assert.Len(t, got.Steps, 2)
}

func TestWriteRun_RejectsUnknownCode(t *testing.T) {
	run := NewRun("", passedResult())
	run.Code = "Code(7)"
	_, err := createTestStore(t).WriteRun(context.Background(), run)
	assert.Error(t, err)
}

func TestGetRun_NotFound(t *testing.T) {
	_, err := createTestStore(t).GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns_OrderAndLimit(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	for _, name := range []string{"a", "b", "c"} {
		_, err := s.WriteRun(ctx, NewRun(name, passedResult()))
		require.NoError(t, err)
	}

	all, err := s.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, scenarios(all))
	assert.Equal(t, []int64{1, 2, 3}, []int64{all[0].Seq, all[1].Seq, all[2].Seq})
	assert.Nil(t, all[0].Steps)

	last, err := s.ListRuns(ctx, "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, scenarios(last))
}

func TestListRuns_FilterByScenario(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	for _, name := range []string{"pop-fails", "", "pop-fails", "clean-pop"} {
		_, err := s.WriteRun(ctx, NewRun(name, passedResult()))
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, "pop-fails", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, []int64{1, 3}, []int64{runs[0].Seq, runs[1].Seq})

	last, err := s.ListRuns(ctx, "pop-fails", 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, int64(3), last[0].Seq)

	none, err := s.ListRuns(ctx, "resume-fails", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListRuns_Empty(t *testing.T) {
	runs, err := createTestStore(t).ListRuns(context.Background(), "", 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestWriteRun_FromHarness(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	result, err := harness.Run(ctx, harness.Config{})
	require.NoError(t, err)
	require.True(t, result.Pass(), result.Message)

	id, err := s.WriteRun(ctx, NewRun("", result))
	require.NoError(t, err)

	got, err := s.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got.Steps, len(result.Steps))
	assert.Equal(t, "verify", got.Steps[len(got.Steps)-1].Op)
}

func scenarios(runs []Run) []string {
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.Scenario
	}
	return out
}
