package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/popframe/internal/frame"
	"github.com/roach88/popframe/internal/trace"
	"github.com/roach88/popframe/internal/verdict"
)

// Scenario is a fault-injection run with its expected result.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" json:"description"`

	// Fault is the service operation that fails, or empty for a clean run.
	Fault string `yaml:"fault,omitempty" json:"fault,omitempty"`

	// WatchNotifications enables the notification monitor.
	WatchNotifications bool `yaml:"watch_notifications,omitempty" json:"watch_notifications,omitempty"`

	// Expect is the expected result.
	Expect Expectation `yaml:"expect" json:"expect"`
}

// Expectation is the expected result of a scenario.
type Expectation struct {
	// Code is "PASSED" or "FAILED".
	Code string `yaml:"code" json:"code"`

	// Outcome is "passed", "failed" or "incomplete". Optional.
	Outcome string `yaml:"outcome,omitempty" json:"outcome,omitempty"`

	// Calls is the exact sequence of service operations. Optional.
	Calls []string `yaml:"calls,omitempty" json:"calls,omitempty"`

	// SubjectEntries is how often the instrumented method must have been
	// entered. Zero means unchecked.
	SubjectEntries int `yaml:"subject_entries,omitempty" json:"subject_entries,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or violates the scenario schema.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ValidateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// ScenarioRun is the result of running a scenario.
type ScenarioRun struct {
	Scenario *Scenario
	Result   *Result
	Calls    []Call
	Errors   []string
}

// Pass reports whether the result matched every expectation.
func (r *ScenarioRun) Pass() bool {
	return len(r.Errors) == 0
}

// RunScenario runs s with its fault injected into a fresh frame.Agent.
// cfg.Service is replaced; cfg.Clock is shared with the fault service so
// that steps and calls are ordered on one clock.
func RunScenario(ctx context.Context, s *Scenario, cfg Config) (*ScenarioRun, error) {
	fault, err := ParseFault(s.Fault)
	if err != nil {
		return nil, err
	}

	if cfg.Clock == nil {
		cfg.Clock = trace.NewClock()
	}
	svc := NewFaultService(frame.NewAgent(cfg.Logger), fault, cfg.Clock)
	defer svc.Restore()

	cfg.Service = svc
	cfg.WatchNotifications = cfg.WatchNotifications || s.WatchNotifications

	result, err := Run(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	run := &ScenarioRun{
		Scenario: s,
		Result:   result,
		Calls:    svc.Calls(),
	}
	for _, e := range EvaluateExpectation(s.Expect, run) {
		run.Errors = append(run.Errors, e.Error())
	}
	return run, nil
}

// expectedCode converts the scenario's expected code.
func (e Expectation) expectedCode() (verdict.Code, error) {
	return verdict.Parse(e.Code)
}
