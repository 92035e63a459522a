// Package engine implements the gridmerge schema-reconciliation and merge core.
//
// ARCHITECTURE:
//
// Two-Pass Merge:
// A merge reads every period's grid twice, strictly in chronological order.
//  1. reconcile: the Tracker observes each period's header row, growing the
//     canonical HeaderSet and emitting one Diagnostic per period.
//  2. assemble: MapRows reshapes each period's data rows onto the HeaderSet
//     finalized by pass 1.
//
// Pass 2 cannot start until pass 1 has seen every period, because a column
// first introduced in the last period still has to appear (empty) in the rows
// of the first one.
//
// Alias Resolution:
// Header spellings are matched literally. The AliasTable rewrites known
// historical spellings to their canonical form; anything else passes through
// unchanged.
//
// Failure Model:
// A period whose grid cannot be read is logged, recorded as skipped and left
// out of both passes. No per-period failure aborts a merge. Only a caller
// error (sources out of order) is returned as an error.
//
// CRITICAL PATTERNS:
//
// Ordering:
// HeaderSet insertion order is first-seen order across periods, and drop
// detection compares each period against the previous readable, non-blank one.
// Both depend on chronological processing, so sources must arrive sorted.
//
// Ownership:
// The Tracker is the only writer of the HeaderSet, and only during pass 1.
// All mutable state lives on Tracker and Engine instances.
package engine
