package ir

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Metadata column names. Every HeaderSet starts with these three, in this order.
const (
	ColumnYear  = "Year"
	ColumnMonth = "Month"
	ColumnDay   = "Day"
)

// MetadataColumns returns the fixed leading columns of every HeaderSet.
func MetadataColumns() []string {
	return []string{ColumnYear, ColumnMonth, ColumnDay}
}

// Period identifies one reporting interval.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// String formats the period the way reports print it, e.g. "2000/6".
func (p Period) String() string {
	return fmt.Sprintf("%d/%d", p.Year, p.Month)
}

// ParsePeriod parses the "YEAR/MONTH" form produced by String.
func ParsePeriod(s string) (Period, error) {
	year, month, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Period{}, fmt.Errorf("period %q: want YEAR/MONTH", s)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return Period{}, fmt.Errorf("period %q: bad year: %w", s, err)
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return Period{}, fmt.Errorf("period %q: bad month: %w", s, err)
	}
	p := Period{Year: y, Month: m}
	if !p.Valid() {
		return Period{}, fmt.Errorf("period %q: out of range", s)
	}
	return p, nil
}

// Compare orders periods chronologically. It returns -1, 0 or +1.
func (p Period) Compare(o Period) int {
	switch {
	case p.Year < o.Year:
		return -1
	case p.Year > o.Year:
		return 1
	case p.Month < o.Month:
		return -1
	case p.Month > o.Month:
		return 1
	default:
		return 0
	}
}

// Before reports whether p is chronologically earlier than o.
func (p Period) Before(o Period) bool {
	return p.Compare(o) < 0
}

// Valid reports whether the month is in range and the year is positive.
func (p Period) Valid() bool {
	return p.Year > 0 && p.Month >= 1 && p.Month <= 12
}

// HeaderSet is an ordered, duplicate-free, append-only list of canonical
// header names. Names are kept in first-seen order.
type HeaderSet struct {
	names []string
	index map[string]int
}

// NewHeaderSet returns a set holding only the metadata columns.
func NewHeaderSet() *HeaderSet {
	hs := &HeaderSet{index: make(map[string]int)}
	for _, name := range MetadataColumns() {
		hs.Add(name)
	}
	return hs
}

// HeaderSetOf rebuilds a set from a persisted header order.
// Duplicates after the first occurrence are ignored.
func HeaderSetOf(names []string) *HeaderSet {
	hs := &HeaderSet{index: make(map[string]int, len(names))}
	for _, name := range names {
		hs.Add(name)
	}
	return hs
}

// Add appends name if it is not already present and reports whether it was added.
func (hs *HeaderSet) Add(name string) bool {
	if _, ok := hs.index[name]; ok {
		return false
	}
	hs.index[name] = len(hs.names)
	hs.names = append(hs.names, name)
	return true
}

// Contains reports whether name is in the set.
func (hs *HeaderSet) Contains(name string) bool {
	_, ok := hs.index[name]
	return ok
}

// Index returns the position of name, or -1 if absent.
func (hs *HeaderSet) Index(name string) int {
	if i, ok := hs.index[name]; ok {
		return i
	}
	return -1
}

// Len returns the number of names.
func (hs *HeaderSet) Len() int {
	return len(hs.names)
}

// Names returns a copy of the names in order.
func (hs *HeaderSet) Names() []string {
	return slices.Clone(hs.names)
}

// Rename records a raw header spelling rewritten to its canonical spelling.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// String formats the rename as reports print it.
func (r Rename) String() string {
	return r.From + " to " + r.To
}

// Diagnostic describes how one period's headers differ from the history so far.
// It is informational only and has no effect on the merge.
type Diagnostic struct {
	Period  Period   `json:"period"`
	Source  string   `json:"source,omitempty"`
	New     []string `json:"new,omitempty"`
	Dropped []string `json:"dropped,omitempty"`
	Renamed []Rename `json:"renamed,omitempty"`

	// Blank marks a period whose grid had no non-blank row.
	Blank bool `json:"blank,omitempty"`
}

// IsEmpty reports whether the diagnostic has nothing to report.
func (d Diagnostic) IsEmpty() bool {
	return len(d.New) == 0 && len(d.Dropped) == 0 && len(d.Renamed) == 0
}

// CanonicalRow is one data row reshaped onto the finalized HeaderSet.
// Values[i] belongs to the i-th header.
type CanonicalRow struct {
	Period Period `json:"period"`
	Values []Cell `json:"values"`
}

// Get returns the value for the named header, or an empty cell if the
// header is not part of the set.
func (r CanonicalRow) Get(headers *HeaderSet, name string) Cell {
	i := headers.Index(name)
	if i < 0 || i >= len(r.Values) {
		return Empty()
	}
	return r.Values[i]
}

// Record returns the row as a header-name keyed map.
func (r CanonicalRow) Record(headers *HeaderSet) map[string]Cell {
	out := make(map[string]Cell, headers.Len())
	for i, name := range headers.names {
		if i < len(r.Values) {
			out[name] = r.Values[i]
		} else {
			out[name] = Empty()
		}
	}
	return out
}

// Period processing outcomes.
const (
	StatusMerged  = "merged"
	StatusBlank   = "blank"
	StatusSkipped = "skipped"
)

// PeriodStatus records what happened to one source during a merge.
type PeriodStatus struct {
	Period Period `json:"period"`
	Source string `json:"source"`
	Status string `json:"status"`
	Rows   int    `json:"rows"`
	Error  string `json:"error,omitempty"`
}
