package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// CellKind discriminates the values a grid cell may hold.
type CellKind uint8

const (
	// CellEmpty is a cell with no content.
	CellEmpty CellKind = iota
	// CellString is a text cell.
	CellString
	// CellNumber is a numeric cell.
	CellNumber
)

// String returns the kind name used in JSON and diagnostics.
func (k CellKind) String() string {
	switch k {
	case CellEmpty:
		return "empty"
	case CellString:
		return "string"
	case CellNumber:
		return "number"
	default:
		return fmt.Sprintf("CellKind(%d)", uint8(k))
	}
}

// Cell is a single grid value. The zero value is an empty cell.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
}

// Empty returns an empty cell.
func Empty() Cell {
	return Cell{}
}

// Str creates a string cell.
func Str(s string) Cell {
	return Cell{Kind: CellString, Str: s}
}

// Num creates a numeric cell.
func Num(n float64) Cell {
	return Cell{Kind: CellNumber, Num: n}
}

// Int creates a numeric cell from an integer.
func Int(n int) Cell {
	return Num(float64(n))
}

// IsBlank reports whether the cell carries no content.
// An empty string counts as blank; whitespace and zero do not.
func (c Cell) IsBlank() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellString:
		return c.Str == ""
	default:
		return false
	}
}

// Text renders the cell for flat-file output. Numbers use the shortest
// representation that round-trips, so 1 renders as "1" and 12345.6 as "12345.6".
func (c Cell) Text() string {
	switch c.Kind {
	case CellString:
		return c.Str
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (c Cell) String() string {
	return c.Text()
}

// MarshalJSON encodes empty cells as null, strings as JSON strings
// and numbers as JSON numbers.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellString:
		return json.Marshal(c.Str)
	case CellNumber:
		return json.Marshal(c.Num)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler for Cell.
func (c *Cell) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case 'n':
		*c = Empty()
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Str(s)
		return nil
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("cell: %w", err)
		}
		*c = Num(n)
		return nil
	}
}

// Row is one line of a grid.
type Row []Cell

// IsBlank reports whether every cell in the row is blank.
// A row with no cells is blank.
func (r Row) IsBlank() bool {
	for _, c := range r {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// Texts renders every cell of the row as text.
func (r Row) Texts() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Text()
	}
	return out
}

// Grid is a period's raw tabular content, before any header resolution.
type Grid []Row

// HeaderRow returns the index of the first non-blank row, or -1 when
// every row is blank.
func (g Grid) HeaderRow() int {
	for i, row := range g {
		if !row.IsBlank() {
			return i
		}
	}
	return -1
}

// StrRow builds a row of string cells. Empty strings become empty cells.
// Intended for tests and fixtures.
func StrRow(values ...string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		if v == "" {
			row[i] = Empty()
			continue
		}
		row[i] = Str(v)
	}
	return row
}
