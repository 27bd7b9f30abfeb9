package harness

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed scenario.cue
var scenarioSchema string

// ScenarioError reports a scenario that violates the scenario schema.
type ScenarioError struct {
	Name    string
	Details string
}

func (e *ScenarioError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("scenario schema violation:\n%s", e.Details)
	}
	return fmt.Sprintf("scenario %q schema violation:\n%s", e.Name, e.Details)
}

// ValidateScenario checks s against the embedded CUE schema, then applies
// the checks CUE cannot express.
func ValidateScenario(s *Scenario) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(scenarioSchema, cue.Filename("scenario.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("failed to compile scenario schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	value := def.Unify(ctx.Encode(s))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return &ScenarioError{Name: s.Name, Details: cueerrors.Details(err, nil)}
	}

	if _, err := ParseFault(s.Fault); err != nil {
		return err
	}
	if _, err := s.Expect.expectedCode(); err != nil {
		return fmt.Errorf("expect.code: %w", err)
	}
	if s.Expect.Code == "PASSED" && s.Fault != "" {
		return fmt.Errorf("expect.code: a scenario with fault %q cannot pass", s.Fault)
	}
	return nil
}
