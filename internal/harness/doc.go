// Package harness drives the frame-pop conformance run and checks its
// post-conditions.
//
// A run starts a subject.Subject, waits until it is parked inside the
// instrumented method, then suspends its thread, pops the top frame,
// tells the subject the pop happened and resumes the thread. After the
// subject terminates, the controller verifies that every global field
// carries the value written by the popped method, that the subject's own
// argument checks passed and, optionally, that the pop posted no
// notification.
//
// # Scenario Format
//
// Fault-injection scenarios are YAML files validated against an embedded
// CUE schema:
//
//	name: pop-fails
//	description: "popFrame reports failure; resume is still attempted"
//	fault: pop            # "", suspend, pop or resume
//	watch_notifications: false
//	expect:
//	  code: FAILED        # PASSED or FAILED
//	  outcome: failed     # passed, failed or incomplete
//	  calls: [suspend, popFrame, resume]
//	  subject_entries: 1
//
// # Deterministic Testing
//
// Every controller step and every service call is stamped by one logical
// clock, so the trace of a scenario is identical across runs and can be
// compared against a golden file (see AssertGolden).
//
// # Usage
//
//	result, err := harness.Run(ctx, harness.Config{Out: os.Stdout})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Exit(result.Code.ExitStatus())
package harness
