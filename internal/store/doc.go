// Package store provides SQLite-backed persistence for merge runs.
//
// A run is one complete merge result:
//   - runs: one row per run (id, alias table, counts, versions)
//   - run_headers: the finalized canonical header order
//   - run_periods: what happened to every source period
//   - run_diagnostics: the header diagnostics, one JSON document per period
//   - run_rows: the merged table, cells stored as a JSON array aligned to run_headers
//
// # Critical Patterns
//
// Runs are immutable. WriteRun inserts a run and all its children in a
// single transaction; nothing updates them afterwards.
//
// All reads are ordered deterministically: runs by seq, children by
// position or ordinal. Wall-clock timestamps are recorded but never used
// for ordering.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
