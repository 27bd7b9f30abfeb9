// Package verdict defines the result codes shared by the controller and the
// subject of a frame-pop run.
package verdict

import "fmt"

// Code is the integer outcome of a run.
type Code int

const (
	// Passed means every check held.
	Passed Code = 0
	// Failed means at least one check failed or the run could not complete.
	Failed Code = 2
)

// JCKStatusBase is added to a Code to form the process exit status.
const JCKStatusBase = 95

// String returns "PASSED" or "FAILED".
func (c Code) String() string {
	switch c {
	case Passed:
		return "PASSED"
	case Failed:
		return "FAILED"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// ExitStatus returns the process exit status for the code.
func (c Code) ExitStatus() int {
	return int(c) + JCKStatusBase
}

// Parse converts "PASSED" or "FAILED" into a Code.
func Parse(s string) (Code, error) {
	switch s {
	case "PASSED":
		return Passed, nil
	case "FAILED":
		return Failed, nil
	default:
		return Failed, fmt.Errorf("unknown result code %q", s)
	}
}
