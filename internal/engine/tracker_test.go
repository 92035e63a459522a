package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridmerge/internal/ir"
)

var (
	p199306 = ir.Period{Year: 1993, Month: 6}
	p199311 = ir.Period{Year: 1993, Month: 11}
	p199406 = ir.Period{Year: 1994, Month: 6}
	p200006 = ir.Period{Year: 2000, Month: 6}
	p200011 = ir.Period{Year: 2000, Month: 11}
)

func TestTrackerFirstPeriod(t *testing.T) {
	tr := NewTracker(MustAliasTable(map[string]string{"Rmax": "RMax"}))

	diag := tr.Observe(p200006, []string{"Rank", "Rmax", "Name"})

	assert.Equal(t, p200006, diag.Period)
	assert.Equal(t, []string{"Rank", "RMax", "Name"}, diag.New)
	assert.Empty(t, diag.Dropped, "first period has nothing to drop")
	assert.Equal(t, []ir.Rename{{From: "Rmax", To: "RMax"}}, diag.Renamed)
	assert.Equal(t, []string{"Year", "Month", "Day", "Rank", "RMax", "Name"}, tr.Headers().Names())
}

func TestTrackerRenameThenNewColumn(t *testing.T) {
	tr := NewTracker(MustAliasTable(map[string]string{"Rmax": "RMax"}))

	a := tr.Observe(p200006, []string{"Rank", "Rmax", "Name"})
	b := tr.Observe(p200011, []string{"Rank", "RMax", "Name", "Power (kW)"})

	assert.Equal(t, []ir.Rename{{From: "Rmax", To: "RMax"}}, a.Renamed)
	assert.Empty(t, a.Dropped)

	assert.Equal(t, []string{"Power (kW)"}, b.New)
	assert.Empty(t, b.Dropped)
	assert.Empty(t, b.Renamed)

	names := tr.Headers().Names()
	for _, want := range []string{"Year", "Month", "Day", "Rank", "RMax", "Name", "Power (kW)"} {
		assert.Contains(t, names, want)
	}
}

func TestTrackerDropsAgainstPreviousPeriodOnly(t *testing.T) {
	tr := NewTracker(nil)

	tr.Observe(p199306, []string{"Rank", "Name", "Country"})
	d2 := tr.Observe(p199311, []string{"Rank", "Name"})
	d3 := tr.Observe(p199406, []string{"Rank", "Name", "Country"})

	assert.Equal(t, []string{"Country"}, d2.Dropped)
	assert.Empty(t, d2.New)

	// Country returns: not new (seen before), not dropped.
	assert.Empty(t, d3.New)
	assert.Empty(t, d3.Dropped)
	assert.True(t, d3.IsEmpty())
}

func TestTrackerHeaderSetNeverShrinks(t *testing.T) {
	tr := NewTracker(nil)
	periods := []struct {
		p      ir.Period
		header []string
	}{
		{p199306, []string{"A", "B", "C"}},
		{p199311, []string{"B"}},
		{p199406, []string{"D"}},
		{p200006, []string{}},
		{p200011, []string{"A", "E"}},
	}

	var seen []string
	for _, step := range periods {
		tr.Observe(step.p, step.header)
		names := tr.Headers().Names()
		for _, prev := range seen {
			assert.Contains(t, names, prev, "header %q disappeared at %s", prev, step.p)
		}
		seen = names
	}

	assert.Equal(t, []string{"Year", "Month", "Day", "A", "B", "C", "D", "E"}, seen)
}

func TestTrackerDuplicateHeadersInOneRow(t *testing.T) {
	tr := NewTracker(MustAliasTable(map[string]string{"Rmax": "RMax"}))

	diag := tr.Observe(p199306, []string{"RMax", "Rmax", "Name", "Name"})

	assert.Equal(t, []string{"RMax", "Name"}, diag.New)
	assert.Equal(t, []string{"Year", "Month", "Day", "RMax", "Name"}, tr.Headers().Names())
}

func TestTrackerIgnoresBlankHeaderCells(t *testing.T) {
	tr := NewTracker(nil)

	diag := tr.Observe(p199306, []string{"Rank", "", "Name", ""})

	assert.Equal(t, []string{"Rank", "Name"}, diag.New)
	assert.Equal(t, []string{"Rank", "Name"}, tr.Previous())
}

func TestTrackerMetadataNamesAreNotNew(t *testing.T) {
	tr := NewTracker(nil)

	diag := tr.Observe(p199306, []string{"Year", "Rank"})

	assert.Equal(t, []string{"Rank"}, diag.New)
}

func TestTrackerCanonicalSpellingSeenEarlier(t *testing.T) {
	// RMax appears directly first; a later rename to it adds nothing.
	tr := NewTracker(MustAliasTable(map[string]string{"Rmax": "RMax"}))

	tr.Observe(p199306, []string{"Rank", "RMax"})
	diag := tr.Observe(p199311, []string{"Name", "Rmax"})

	assert.Equal(t, []string{"Name"}, diag.New)
	assert.Equal(t, []string{"Rank"}, diag.Dropped)
	assert.Equal(t, []ir.Rename{{From: "Rmax", To: "RMax"}}, diag.Renamed)
	assert.Equal(t, []string{"Year", "Month", "Day", "Rank", "RMax", "Name"}, tr.Headers().Names())
}

func TestObserveGridSkipsLeadingBlankRows(t *testing.T) {
	tr := NewTracker(nil)

	diag := tr.ObserveGrid(p199306, ir.Grid{
		ir.StrRow(),
		ir.StrRow("", ""),
		ir.StrRow("Rank", "Name"),
		ir.StrRow("1", "A"),
	})

	assert.False(t, diag.Blank)
	assert.Equal(t, []string{"Rank", "Name"}, diag.New)
}

func TestObserveGridNumericHeaderCell(t *testing.T) {
	tr := NewTracker(nil)

	diag := tr.ObserveGrid(p199306, ir.Grid{
		{ir.Str("Rank"), ir.Int(1993)},
	})

	assert.Equal(t, []string{"Rank", "1993"}, diag.New)
}

func TestObserveGridBlankPeriodLeavesStateAlone(t *testing.T) {
	tr := NewTracker(nil)

	tr.Observe(p199306, []string{"Rank", "Name", "Country"})
	blank := tr.ObserveGrid(p199311, ir.Grid{ir.StrRow("", ""), ir.StrRow()})
	next := tr.Observe(p199406, []string{"Rank", "Name", "Country"})

	assert.True(t, blank.Blank)
	assert.True(t, blank.IsEmpty())
	assert.Equal(t, p199311, blank.Period)

	// No false mass-drop: the next period is compared with 1993/6.
	assert.Empty(t, next.Dropped)
	assert.Empty(t, next.New)
	assert.Equal(t, []string{"Rank", "Name", "Country"}, tr.Previous())
}

func TestObserveGridEmptyGrid(t *testing.T) {
	tr := NewTracker(nil)
	diag := tr.ObserveGrid(p199306, nil)

	require.True(t, diag.Blank)
	assert.Equal(t, ir.MetadataColumns(), tr.Headers().Names())
	assert.Empty(t, tr.Previous())
}

func TestIndependentTrackers(t *testing.T) {
	a := NewTracker(nil)
	b := NewTracker(nil)

	a.Observe(p199306, []string{"OnlyInA"})

	assert.False(t, b.Headers().Contains("OnlyInA"))
	assert.Empty(t, b.Previous())
}
