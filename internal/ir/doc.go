// Package ir provides the shared data model for gridmerge.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key constraints:
//   - Cells are copied through verbatim, never coerced between kinds
//   - A HeaderSet only grows, and always starts with the metadata columns
//   - A CanonicalRow holds exactly one value per finalized header
//   - Periods order by (year, month); a period appears at most once per run
package ir
