package engine

import (
	"slices"

	"github.com/roach88/gridmerge/internal/ir"
)

// Source is one period's grid accessor.
//
// ReadGrid may be called more than once (once per pass) and must return the
// same content each time. Read failures should be *ir.GridReadError; other
// errors are wrapped into one by the engine.
type Source interface {
	Period() ir.Period
	Name() string
	ReadGrid() (ir.Grid, error)
}

// GridFunc reads a grid on demand.
type GridFunc func() (ir.Grid, error)

type funcSource struct {
	period ir.Period
	name   string
	read   GridFunc
}

func (s funcSource) Period() ir.Period          { return s.period }
func (s funcSource) Name() string               { return s.name }
func (s funcSource) ReadGrid() (ir.Grid, error) { return s.read() }

// NewSource adapts a GridFunc into a Source.
func NewSource(period ir.Period, name string, read GridFunc) Source {
	return funcSource{period: period, name: name, read: read}
}

// StaticSource returns a Source over an in-memory grid.
func StaticSource(period ir.Period, name string, grid ir.Grid) Source {
	return NewSource(period, name, func() (ir.Grid, error) {
		return grid, nil
	})
}

// SortSources orders sources chronologically. The sort is stable, so
// duplicate periods keep their relative order (and are then rejected by Merge).
func SortSources(sources []Source) {
	slices.SortStableFunc(sources, func(a, b Source) int {
		return a.Period().Compare(b.Period())
	})
}
