package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/gridmerge/internal/ir"
)

// ErrPeriodOrder is returned when sources are not in strictly increasing
// period order. Header diagnostics and first-seen column order depend on it.
var ErrPeriodOrder = errors.New("sources out of chronological order")

// OrderError identifies the first pair of sources that violates ordering.
type OrderError struct {
	Previous ir.Period
	Current  ir.Period
	Source   string
}

// Error implements the error interface.
func (e *OrderError) Error() string {
	if e.Previous == e.Current {
		return fmt.Sprintf("%v: duplicate period %s (%s)", ErrPeriodOrder, e.Current, e.Source)
	}
	return fmt.Sprintf("%v: %s follows %s (%s)", ErrPeriodOrder, e.Current, e.Previous, e.Source)
}

// Unwrap lets errors.Is match ErrPeriodOrder.
func (e *OrderError) Unwrap() error {
	return ErrPeriodOrder
}

// IsGridReadError reports whether err is or wraps an *ir.GridReadError.
func IsGridReadError(err error) bool {
	var gre *ir.GridReadError
	return errors.As(err, &gre)
}

// asGridReadError wraps err for src unless it already is a GridReadError.
func asGridReadError(src Source, err error) *ir.GridReadError {
	var gre *ir.GridReadError
	if errors.As(err, &gre) {
		return gre
	}
	return &ir.GridReadError{Period: src.Period(), Source: src.Name(), Err: err}
}

// checkOrder verifies sources are strictly increasing by period.
func checkOrder(sources []Source) error {
	for i := 1; i < len(sources); i++ {
		prev, cur := sources[i-1].Period(), sources[i].Period()
		if !prev.Before(cur) {
			return &OrderError{Previous: prev, Current: cur, Source: sources[i].Name()}
		}
	}
	return nil
}
