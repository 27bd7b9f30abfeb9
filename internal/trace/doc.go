// Package trace provides the logical clock that orders controller steps and
// the canonical JSON encoding used for golden trace snapshots.
//
// All steps are stamped with a strictly increasing seq number, never a wall
// clock timestamp, so two runs of the same scenario produce byte-identical
// snapshots.
package trace
