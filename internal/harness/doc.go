// Package harness runs merge scenarios as executable contract tests.
//
// A scenario describes a handful of period grids inline, the alias table to
// merge them with, and what the merge must produce. The harness runs the real
// engine over those grids, persists the result to a fresh in-memory store,
// reads it back, and evaluates the scenario's assertions plus a fixed set of
// invariants every merge must satisfy.
//
// # Scenario Format
//
//	name: renamed_column
//	description: "Rmax is renamed to RMax and merges into one column"
//	aliases:
//	  Rmax: RMax
//	periods:
//	  - year: 1993
//	    month: 6
//	    grid:
//	      - [Rank, Rmax]
//	      - [1, 59.7]
//	  - year: 1993
//	    month: 11
//	    error: "file is locked"
//	assertions:
//	  - type: headers
//	    headers: [Year, Month, Day, Rank, RMax]
//	  - type: diagnostic
//	    period: "1993/6"
//	    renamed: ["Rmax to RMax"]
//	  - type: period_status
//	    period: "1993/11"
//	    status: skipped
//	  - type: cell
//	    row: 0
//	    column: RMax
//	    value: 59.7
//
// Grid values keep their YAML types: numbers become numeric cells, null an
// empty cell, and everything else a string.
//
// # Assertion Types
//
//   - headers: the finalized header list, exactly
//   - diagnostic: one period's new, dropped and renamed headers
//   - period_status: one period's status and row count
//   - row_count: total rows in the unified table
//   - cell: one value of the unified table, by row index and column name
//
// # Golden Files
//
// RunWithGolden snapshots the text report and the CSV table under
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
