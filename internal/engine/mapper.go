package engine

import (
	"github.com/roach88/gridmerge/internal/ir"
)

// MapRows reshapes a period's data rows onto the finalized HeaderSet.
//
// The first non-blank row of grid is the period's header row; it is resolved
// through aliases again rather than reusing pass-1 results. Every later
// non-blank row yields one CanonicalRow, in grid order. Cells are matched to
// headers by position: cells past the end of the header row are dropped and
// missing cells stay empty. When two positions resolve to the same canonical
// name, the later one wins. Year, Month and Day always come from the period,
// with Day fixed to 1.
//
// headers is read-only here. Columns it does not contain are ignored.
func MapRows(period ir.Period, headers *ir.HeaderSet, aliases *AliasTable, grid ir.Grid) []ir.CanonicalRow {
	start := grid.HeaderRow()
	if start < 0 {
		return nil
	}

	resolved, _ := aliases.Resolve(grid[start].Texts())

	// Position in the header row -> position in the HeaderSet.
	targets := make([]int, len(resolved))
	for i, name := range resolved {
		if name == "" {
			targets[i] = -1
			continue
		}
		targets[i] = headers.Index(name)
	}

	yearIdx := headers.Index(ir.ColumnYear)
	monthIdx := headers.Index(ir.ColumnMonth)
	dayIdx := headers.Index(ir.ColumnDay)

	var rows []ir.CanonicalRow
	for _, raw := range grid[start+1:] {
		if raw.IsBlank() {
			continue
		}

		values := make([]ir.Cell, headers.Len())
		n := min(len(raw), len(targets))
		for i := 0; i < n; i++ {
			if targets[i] >= 0 {
				values[targets[i]] = raw[i]
			}
		}

		setCell(values, yearIdx, ir.Int(period.Year))
		setCell(values, monthIdx, ir.Int(period.Month))
		setCell(values, dayIdx, ir.Int(1))

		rows = append(rows, ir.CanonicalRow{Period: period, Values: values})
	}

	return rows
}

func setCell(values []ir.Cell, idx int, c ir.Cell) {
	if idx >= 0 && idx < len(values) {
		values[idx] = c
	}
}
