// Package store provides the SQLite-backed run journal.
//
// Every journalled run records its verdict, the field values handed over by
// the subject and the ordered controller trace:
//   - runs: one row per run, identified by a UUIDv7
//   - run_steps: the controller steps of a run, keyed by (run_id, seq)
//
// # Ordering
//
// Runs are ordered by a journal-wide seq INTEGER assigned on write, never by
// timestamps. All list queries use ORDER BY seq ASC, id ASC COLLATE BINARY,
// so two reads of the same journal return identical results.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Field values are stored as canonical JSON (see package trace) so that
// the stored text of identical runs is byte-identical.
package store
