package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/gridmerge/internal/ir"
)

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var (
	testP1 = ir.Period{Year: 1993, Month: 6}
	testP2 = ir.Period{Year: 1993, Month: 11}
	testP3 = ir.Period{Year: 1994, Month: 6}
)

// createTestRun builds a small three-period run.
func createTestRun(id string) RunInput {
	return RunInput{
		ID:        id,
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Aliases:   map[string]string{"Rmax": "RMax"},
		Headers:   []string{"Year", "Month", "Day", "Rank", "RMax"},
		Periods: []ir.PeriodStatus{
			{Period: testP1, Source: "TOP500_199306.csv", Status: ir.StatusMerged, Rows: 2},
			{Period: testP2, Source: "TOP500_199311.csv", Status: ir.StatusMerged, Rows: 1},
			{Period: testP3, Source: "TOP500_199406.csv", Status: ir.StatusSkipped, Error: "parse csv: bad quote"},
		},
		Diagnostics: []ir.Diagnostic{
			{Period: testP1, Source: "TOP500_199306.csv", New: []string{"Rank", "RMax"}, Renamed: []ir.Rename{{From: "Rmax", To: "RMax"}}},
			{Period: testP2, Source: "TOP500_199311.csv"},
		},
		Rows: []ir.CanonicalRow{
			{Period: testP1, Values: []ir.Cell{ir.Int(1993), ir.Int(6), ir.Int(1), ir.Num(1), ir.Num(59.7)}},
			{Period: testP1, Values: []ir.Cell{ir.Int(1993), ir.Int(6), ir.Int(1), ir.Num(2), ir.Str("n/a")}},
			{Period: testP2, Values: []ir.Cell{ir.Int(1993), ir.Int(11), ir.Int(1), ir.Num(1), ir.Empty()}},
		},
	}
}
