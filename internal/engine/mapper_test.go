package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridmerge/internal/ir"
)

func TestMapRowsSingleRow(t *testing.T) {
	headers := ir.HeaderSetOf([]string{"Year", "Month", "Day", "Rank", "RMax", "Name", "Power (kW)"})
	grid := ir.Grid{
		ir.StrRow("Rank", "RMax", "Name"),
		{ir.Int(1), ir.Num(12345.6), ir.Str("MachineX")},
	}

	rows := MapRows(p200006, headers, nil, grid)
	require.Len(t, rows, 1)

	rec := rows[0].Record(headers)
	assert.Equal(t, map[string]ir.Cell{
		"Year":       ir.Int(2000),
		"Month":      ir.Int(6),
		"Day":        ir.Int(1),
		"Rank":       ir.Int(1),
		"RMax":       ir.Num(12345.6),
		"Name":       ir.Str("MachineX"),
		"Power (kW)": ir.Empty(),
	}, rec)
	assert.Equal(t, p200006, rows[0].Period)
}

func TestMapRowsAppliesAliases(t *testing.T) {
	headers := ir.HeaderSetOf([]string{"Year", "Month", "Day", "RMax"})
	grid := ir.Grid{
		ir.StrRow("Rmax"),
		{ir.Num(59.7)},
	}

	rows := MapRows(p199306, headers, MustAliasTable(map[string]string{"Rmax": "RMax"}), grid)
	require.Len(t, rows, 1)
	assert.Equal(t, ir.Num(59.7), rows[0].Get(headers, "RMax"))
}

func TestMapRowsRowShapeMatchesHeaderSet(t *testing.T) {
	headers := ir.HeaderSetOf([]string{"Year", "Month", "Day", "A", "B", "C", "D"})
	grid := ir.Grid{
		ir.StrRow("B", "A"),
		ir.StrRow("b1"),
		ir.StrRow("b2", "a2", "overflow", "more"),
		ir.StrRow("b3", "a3"),
	}

	rows := MapRows(p199306, headers, nil, grid)
	require.Len(t, rows, 3)

	for _, row := range rows {
		assert.Len(t, row.Values, headers.Len())
	}

	assert.Equal(t, ir.Str("b1"), rows[0].Get(headers, "B"))
	assert.Equal(t, ir.Empty(), rows[0].Get(headers, "A"), "short row leaves missing cells empty")
	assert.Equal(t, ir.Str("a2"), rows[1].Get(headers, "A"))
	assert.Equal(t, ir.Empty(), rows[1].Get(headers, "C"), "cells past the header row are dropped")
	assert.Equal(t, ir.Empty(), rows[2].Get(headers, "D"))
}

func TestMapRowsMetadataOverridesRowValues(t *testing.T) {
	headers := ir.HeaderSetOf([]string{"Year", "Month", "Day", "Rank"})
	grid := ir.Grid{
		ir.StrRow("Year", "Month", "Day", "Rank"),
		{ir.Int(1999), ir.Int(12), ir.Int(31), ir.Int(7)},
	}

	rows := MapRows(p200011, headers, nil, grid)
	require.Len(t, rows, 1)

	assert.Equal(t, []ir.Cell{ir.Int(2000), ir.Int(11), ir.Int(1), ir.Int(7)}, rows[0].Values)
}

func TestMapRowsSkipsBlankRowsAndKeepsOrder(t *testing.T) {
	headers := ir.HeaderSetOf([]string{"Year", "Month", "Day", "Rank"})
	grid := ir.Grid{
		ir.StrRow(""),
		ir.StrRow("Rank"),
		ir.StrRow("1"),
		ir.StrRow(""),
		ir.StrRow("2"),
		ir.StrRow(),
		ir.StrRow("3"),
	}

	rows := MapRows(p199306, headers, nil, grid)
	require.Len(t, rows, 3)
	for i, want := range []string{"1", "2", "3"} {
		assert.Equal(t, ir.Str(want), rows[i].Get(headers, "Rank"))
	}
}

func TestMapRowsDuplicateCanonicalNameLaterWins(t *testing.T) {
	headers := ir.HeaderSetOf([]string{"Year", "Month", "Day", "RMax"})
	grid := ir.Grid{
		ir.StrRow("RMax", "Rmax"),
		ir.StrRow("first", "second"),
		ir.StrRow("only"),
	}

	rows := MapRows(p199306, headers, MustAliasTable(map[string]string{"Rmax": "RMax"}), grid)
	require.Len(t, rows, 2)
	assert.Equal(t, ir.Str("second"), rows[0].Get(headers, "RMax"))
	assert.Equal(t, ir.Str("only"), rows[1].Get(headers, "RMax"), "a missing later cell does not clear the earlier one")
}

func TestMapRowsBlankGrid(t *testing.T) {
	headers := ir.NewHeaderSet()
	assert.Empty(t, MapRows(p199306, headers, nil, nil))
	assert.Empty(t, MapRows(p199306, headers, nil, ir.Grid{ir.StrRow("", "")}))
}

func TestMapRowsHeaderOnly(t *testing.T) {
	headers := ir.HeaderSetOf([]string{"Year", "Month", "Day", "Rank"})
	assert.Empty(t, MapRows(p199306, headers, nil, ir.Grid{ir.StrRow("Rank")}))
}

func TestMapRowsIgnoresColumnsOutsideHeaderSet(t *testing.T) {
	headers := ir.HeaderSetOf([]string{"Year", "Month", "Day", "Rank"})
	grid := ir.Grid{
		ir.StrRow("Rank", "Unknown"),
		ir.StrRow("1", "x"),
	}

	rows := MapRows(p199306, headers, nil, grid)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0].Values, 4)
}

func TestMapRowsDoesNotMutateHeaderSet(t *testing.T) {
	headers := ir.HeaderSetOf([]string{"Year", "Month", "Day"})
	MapRows(p199306, headers, nil, ir.Grid{ir.StrRow("New"), ir.StrRow("v")})
	assert.Equal(t, ir.MetadataColumns(), headers.Names())
}
