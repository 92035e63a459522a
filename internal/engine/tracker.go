package engine

import (
	"slices"

	"github.com/roach88/gridmerge/internal/ir"
)

// Tracker follows header evolution across periods.
//
// It owns the running canonical HeaderSet and the previous period's
// canonical header list. Periods must be observed in chronological order.
//
// INVARIANTS:
//   - headers never shrinks; names keep first-seen order
//   - previous only changes when a period contributes a header row
type Tracker struct {
	aliases  *AliasTable
	headers  *ir.HeaderSet
	previous []string
}

// NewTracker creates a tracker whose HeaderSet holds only the metadata columns.
func NewTracker(aliases *AliasTable) *Tracker {
	return &Tracker{
		aliases: aliases,
		headers: ir.NewHeaderSet(),
	}
}

// Headers returns the running HeaderSet. Callers must not modify it.
func (t *Tracker) Headers() *ir.HeaderSet {
	return t.headers
}

// Previous returns a copy of the last observed period's canonical headers.
func (t *Tracker) Previous() []string {
	return slices.Clone(t.previous)
}

// Observe records one period's raw header row and reports what changed.
// Blank header cells are not columns and are ignored.
func (t *Tracker) Observe(period ir.Period, rawHeader []string) ir.Diagnostic {
	resolved, renames := t.aliases.Resolve(rawHeader)
	current := uniqueNames(resolved)

	diag := ir.Diagnostic{
		Period:  period,
		Renamed: renames,
	}

	// First-seen only: a name another period already added is not new.
	for _, name := range current {
		if !t.headers.Contains(name) {
			diag.New = append(diag.New, name)
		}
	}

	inCurrent := make(map[string]bool, len(current))
	for _, name := range current {
		inCurrent[name] = true
	}
	for _, name := range t.previous {
		if !inCurrent[name] {
			diag.Dropped = append(diag.Dropped, name)
		}
	}

	for _, name := range diag.New {
		t.headers.Add(name)
	}
	t.previous = current

	return diag
}

// ObserveGrid finds the grid's header row and observes it.
//
// A grid without any non-blank row yields a Blank diagnostic and leaves the
// tracker untouched, so the next real period is compared against the last
// period that actually had headers.
func (t *Tracker) ObserveGrid(period ir.Period, grid ir.Grid) ir.Diagnostic {
	idx := grid.HeaderRow()
	if idx < 0 {
		return ir.Diagnostic{Period: period, Blank: true}
	}
	return t.Observe(period, grid[idx].Texts())
}

// uniqueNames drops blank and repeated names, keeping first occurrences.
func uniqueNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
