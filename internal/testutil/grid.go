// Package testutil holds deterministic helpers shared by tests and the
// scenario harness.
package testutil

import (
	"fmt"
	"math"

	"github.com/roach88/gridmerge/internal/ir"
)

// CellOf converts a loosely typed value, as decoded from YAML or written in
// a test table, into a grid cell.
//
// nil becomes an empty cell, strings stay strings (including ""), and any
// Go number becomes a numeric cell. Booleans are rendered as text.
func CellOf(v any) (ir.Cell, error) {
	switch x := v.(type) {
	case nil:
		return ir.Empty(), nil
	case ir.Cell:
		return x, nil
	case string:
		return ir.Str(x), nil
	case bool:
		return ir.Str(fmt.Sprint(x)), nil
	case int:
		return ir.Int(x), nil
	case int64:
		return ir.Num(float64(x)), nil
	case uint64:
		return ir.Num(float64(x)), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ir.Cell{}, fmt.Errorf("cell: non-finite number %v", x)
		}
		return ir.Num(x), nil
	default:
		return ir.Cell{}, fmt.Errorf("cell: unsupported value %v (%T)", v, v)
	}
}

// RowOf converts a slice of loose values into a grid row.
func RowOf(values ...any) (ir.Row, error) {
	row := make(ir.Row, len(values))
	for i, v := range values {
		c, err := CellOf(v)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}
		row[i] = c
	}
	return row, nil
}

// GridOf converts nested loose values into a grid.
func GridOf(rows [][]any) (ir.Grid, error) {
	grid := make(ir.Grid, len(rows))
	for i, values := range rows {
		row, err := RowOf(values...)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		grid[i] = row
	}
	return grid, nil
}

// MustGrid is GridOf for literal fixtures. It panics on unsupported values.
func MustGrid(rows ...[]any) ir.Grid {
	grid, err := GridOf(rows)
	if err != nil {
		panic(err)
	}
	return grid
}
