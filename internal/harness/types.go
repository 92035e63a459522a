package harness

import (
	"github.com/roach88/gridmerge/internal/engine"
	"github.com/roach88/gridmerge/internal/ir"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion and invariant held.
	Pass bool `json:"pass"`

	// Errors contains one message per failed check. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// RunID is the id the merge was persisted under.
	RunID string `json:"run_id,omitempty"`

	// Merge is the engine output. Nil when the merge itself failed.
	Merge *engine.Result `json:"-"`

	// MergeErr is the error returned by the engine, if any.
	MergeErr error `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError records a failed check and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Headers returns the finalized header names, or nil when the merge failed.
func (r *Result) Headers() []string {
	if r.Merge == nil {
		return nil
	}
	return r.Merge.Headers.Names()
}

// Diagnostic returns the diagnostic recorded for p.
func (r *Result) Diagnostic(p ir.Period) (ir.Diagnostic, bool) {
	if r.Merge == nil {
		return ir.Diagnostic{}, false
	}
	for _, d := range r.Merge.Diagnostics {
		if d.Period == p {
			return d, true
		}
	}
	return ir.Diagnostic{}, false
}

// Status returns the processing status recorded for p.
func (r *Result) Status(p ir.Period) (ir.PeriodStatus, bool) {
	if r.Merge == nil {
		return ir.PeriodStatus{}, false
	}
	for _, s := range r.Merge.Periods {
		if s.Period == p {
			return s, true
		}
	}
	return ir.PeriodStatus{}, false
}
