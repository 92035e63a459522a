package grid

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/gridmerge/internal/ir"
)

// ReadXLSX loads one sheet of a workbook into a grid.
//
// Cells are read raw (no number formatting). Cells excelize stores as
// numbers become numeric cells; everything else is text.
func ReadXLSX(path, sheet string) (ir.Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	grid := make(ir.Grid, len(rows))
	for r, values := range rows {
		row := make(ir.Row, len(values))
		for c, v := range values {
			cell, err := xlsxCell(f, sheet, c+1, r+1, v)
			if err != nil {
				return nil, err
			}
			row[c] = cell
		}
		grid[r] = row
	}

	return grid, nil
}

// xlsxCell converts a raw cell value, using the stored cell type to tell
// numbers from text that merely looks numeric.
func xlsxCell(f *excelize.File, sheet string, col, row int, raw string) (ir.Cell, error) {
	if raw == "" {
		return ir.Empty(), nil
	}

	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ir.Cell{}, err
	}
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return ir.Cell{}, fmt.Errorf("cell %s: %w", axis, err)
	}

	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return ir.Num(n), nil
		}
	}
	return ir.Str(raw), nil
}
