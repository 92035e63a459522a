package ir

import "fmt"

// GridReadError reports that a period's source grid could not be opened or parsed.
// It is the only error the merge core handles, and it is never fatal to a run.
type GridReadError struct {
	Period Period
	Source string
	Err    error
}

// Error implements the error interface.
func (e *GridReadError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("read grid %s (%s): %v", e.Source, e.Period, e.Err)
	}
	return fmt.Sprintf("read grid %s: %v", e.Period, e.Err)
}

// Unwrap returns the underlying error.
func (e *GridReadError) Unwrap() error {
	return e.Err
}
