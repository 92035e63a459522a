// Package output writes a merged table to CSV or XLSX.
//
// Every writer emits the header row first and then one row per canonical
// row, with cells aligned to the header order. Missing trailing cells are
// written empty.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/gridmerge/internal/ir"
)

// Stdout is the destination name that selects standard output (CSV).
const Stdout = "-"

// SheetName is the worksheet name used for XLSX output.
const SheetName = "History"

// Table is a finalized header order plus its rows.
type Table struct {
	Headers []string
	Rows    []ir.CanonicalRow
}

// CheckDestination reports whether dest names a supported output.
func CheckDestination(dest string) error {
	if dest == Stdout {
		return nil
	}
	switch strings.ToLower(filepath.Ext(dest)) {
	case ".csv", ".xlsx":
		return nil
	default:
		return fmt.Errorf("unsupported output %q: use .csv, .xlsx or -", dest)
	}
}

// WriteFile writes the table to dest, choosing the format from the file
// extension. Stdout writes CSV to stdout.
func WriteFile(dest string, stdout io.Writer, table Table) error {
	if err := CheckDestination(dest); err != nil {
		return err
	}
	if dest == Stdout {
		return WriteCSV(stdout, table)
	}

	if strings.ToLower(filepath.Ext(dest)) == ".xlsx" {
		return WriteXLSX(dest, table)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if err := WriteCSV(f, table); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dest, err)
	}
	return nil
}

// WriteCSV writes the table as RFC 4180 CSV.
func WriteCSV(w io.Writer, table Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(table.Headers); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(table.Headers))
	for i, row := range table.Rows {
		for j := range record {
			record[j] = ""
			if j < len(row.Values) {
				record[j] = row.Values[j].Text()
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// WriteXLSX writes the table to a new workbook at path using the
// streaming writer. Numeric cells stay numeric.
func WriteXLSX(path string, table Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	header := make([]any, len(table.Headers))
	for i, name := range table.Headers {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write xlsx header: %w", err)
	}

	for i, row := range table.Rows {
		values := make([]any, len(table.Headers))
		for j := range values {
			if j < len(row.Values) {
				values[j] = xlsxValue(row.Values[j])
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(axis, values); err != nil {
			return fmt.Errorf("failed to write xlsx row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush xlsx: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func xlsxValue(c ir.Cell) any {
	switch c.Kind {
	case ir.CellNumber:
		return c.Num
	case ir.CellString:
		return c.Str
	default:
		return nil
	}
}
