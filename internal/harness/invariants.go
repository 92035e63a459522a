package harness

import (
	"fmt"

	"github.com/roach88/gridmerge/internal/engine"
	"github.com/roach88/gridmerge/internal/ir"
)

// CheckInvariants verifies the properties every successful merge must have,
// whatever its inputs. It returns one message per violation.
func CheckInvariants(result *engine.Result) []string {
	var errs []string
	headers := result.Headers.Names()

	meta := ir.MetadataColumns()
	if len(headers) < len(meta) {
		errs = append(errs, fmt.Sprintf("invariant: headers %v shorter than metadata columns", headers))
	} else {
		for i, name := range meta {
			if headers[i] != name {
				errs = append(errs, fmt.Sprintf("invariant: header %d is %q, want %q", i, headers[i], name))
			}
		}
	}

	seen := make(map[string]bool, len(headers))
	for _, name := range headers {
		if seen[name] {
			errs = append(errs, fmt.Sprintf("invariant: header %q appears twice", name))
		}
		seen[name] = true
	}

	var prev ir.Period
	for i, row := range result.Rows {
		if len(row.Values) != len(headers) {
			errs = append(errs, fmt.Sprintf("invariant: row %d has %d values for %d headers", i, len(row.Values), len(headers)))
		}
		if i > 0 && row.Period.Before(prev) {
			errs = append(errs, fmt.Sprintf("invariant: row %d period %s precedes %s", i, row.Period, prev))
		}
		prev = row.Period

		want := []ir.Cell{ir.Int(row.Period.Year), ir.Int(row.Period.Month), ir.Int(1)}
		for j, name := range meta {
			if got := row.Get(result.Headers, name); !sameCell(got, want[j]) {
				errs = append(errs, fmt.Sprintf("invariant: row %d %s is %q, want %q", i, name, got.Text(), want[j].Text()))
			}
		}
	}

	counted := 0
	for _, p := range result.Periods {
		counted += p.Rows
		if p.Status != ir.StatusMerged && p.Rows != 0 {
			errs = append(errs, fmt.Sprintf("invariant: %s period %s has %d rows", p.Status, p.Period, p.Rows))
		}
		if (p.Status == ir.StatusSkipped) != (p.Error != "") {
			errs = append(errs, fmt.Sprintf("invariant: period %s status %s with error %q", p.Period, p.Status, p.Error))
		}
	}
	if counted != len(result.Rows) {
		errs = append(errs, fmt.Sprintf("invariant: period row counts sum to %d, table has %d rows", counted, len(result.Rows)))
	}

	return errs
}
