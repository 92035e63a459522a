package engine

import (
	"log/slog"

	"github.com/roach88/gridmerge/internal/ir"
)

// Engine runs the two-pass merge over a chronologically ordered set of sources.
//
// An Engine holds no per-run state and may be reused; every Merge or
// Reconcile call builds a fresh Tracker.
type Engine struct {
	aliases *AliasTable
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-period progress and read failures.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine resolving headers through aliases. A nil table
// resolves nothing.
func New(aliases *AliasTable, opts ...Option) *Engine {
	e := &Engine{
		aliases: aliases,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Aliases returns the engine's alias table.
func (e *Engine) Aliases() *AliasTable {
	return e.aliases
}

// Reconciliation is the outcome of pass 1.
type Reconciliation struct {
	// Headers is the finalized canonical header order.
	Headers *ir.HeaderSet

	// Diagnostics holds one entry per period readable in pass 1, in period
	// order. Blank periods are included with Blank set. A period that fails
	// only in pass 2 keeps its entry, since its headers stay in Headers,
	// while its status in Periods becomes skipped.
	Diagnostics []ir.Diagnostic

	// Periods records the status of every source, in period order.
	Periods []ir.PeriodStatus

	readable []int // indexes into the source slice that pass 2 will read
}

// Result is the outcome of a full merge.
type Result struct {
	Reconciliation

	// Rows holds every canonical row, ordered by period and then by
	// position within the period's grid.
	Rows []ir.CanonicalRow
}

// Skipped returns the statuses of periods whose grids could not be read.
func (r *Reconciliation) Skipped() []ir.PeriodStatus {
	var out []ir.PeriodStatus
	for _, p := range r.Periods {
		if p.Status == ir.StatusSkipped {
			out = append(out, p)
		}
	}
	return out
}

// Reported returns the non-empty diagnostics, the ones worth showing a person.
func (r *Reconciliation) Reported() []ir.Diagnostic {
	var out []ir.Diagnostic
	for _, d := range r.Diagnostics {
		if !d.IsEmpty() {
			out = append(out, d)
		}
	}
	return out
}

// Reconcile runs pass 1 only: it discovers the canonical header set and
// collects diagnostics without mapping any rows.
func (e *Engine) Reconcile(sources []Source) (*Reconciliation, error) {
	if err := checkOrder(sources); err != nil {
		return nil, err
	}
	return e.reconcile(sources), nil
}

// Merge runs both passes and returns the unified table.
//
// Sources must be in strictly increasing period order (see SortSources).
// Ordered input is a precondition of the merge rather than a per-period
// failure, so a violation returns ErrPeriodOrder before any source is read.
// Unreadable periods are skipped and recorded; they never fail the merge.
func (e *Engine) Merge(sources []Source) (*Result, error) {
	if err := checkOrder(sources); err != nil {
		return nil, err
	}

	rec := e.reconcile(sources)
	e.logger.Info("headers reconciled",
		"periods", len(sources),
		"headers", rec.Headers.Len(),
		"skipped", len(rec.Skipped()),
	)

	result := &Result{Reconciliation: *rec}
	result.Rows = e.assemble(sources, &result.Reconciliation)
	e.logger.Info("rows assembled", "rows", len(result.Rows))

	return result, nil
}

// reconcile is pass 1. It is the only stage that mutates the HeaderSet.
func (e *Engine) reconcile(sources []Source) *Reconciliation {
	tracker := NewTracker(e.aliases)
	rec := &Reconciliation{
		Periods: make([]ir.PeriodStatus, len(sources)),
	}

	for i, src := range sources {
		status := ir.PeriodStatus{Period: src.Period(), Source: src.Name()}

		grid, err := src.ReadGrid()
		if err != nil {
			gre := asGridReadError(src, err)
			e.logger.Warn("skipping period", "period", src.Period().String(), "source", src.Name(), "error", gre.Err)
			status.Status = ir.StatusSkipped
			status.Error = gre.Err.Error()
			rec.Periods[i] = status
			continue
		}

		diag := tracker.ObserveGrid(src.Period(), grid)
		diag.Source = src.Name()
		rec.Diagnostics = append(rec.Diagnostics, diag)
		rec.readable = append(rec.readable, i)

		status.Status = ir.StatusMerged
		if diag.Blank {
			status.Status = ir.StatusBlank
		}
		rec.Periods[i] = status

		e.logger.Debug("observed headers",
			"period", src.Period().String(),
			"new", len(diag.New),
			"dropped", len(diag.Dropped),
			"renamed", len(diag.Renamed),
			"blank", diag.Blank,
		)
	}

	rec.Headers = tracker.Headers()
	return rec
}

// assemble is pass 2. It re-reads every period pass 1 could read and maps
// its rows against the frozen HeaderSet.
func (e *Engine) assemble(sources []Source, rec *Reconciliation) []ir.CanonicalRow {
	var rows []ir.CanonicalRow

	for _, i := range rec.readable {
		src := sources[i]

		grid, err := src.ReadGrid()
		if err != nil {
			gre := asGridReadError(src, err)
			e.logger.Warn("skipping period rows", "period", src.Period().String(), "source", src.Name(), "error", gre.Err)
			rec.Periods[i].Status = ir.StatusSkipped
			rec.Periods[i].Error = gre.Err.Error()
			continue
		}

		mapped := MapRows(src.Period(), rec.Headers, e.aliases, grid)
		rec.Periods[i].Rows = len(mapped)
		rows = append(rows, mapped...)

		e.logger.Debug("mapped rows", "period", src.Period().String(), "rows", len(mapped))
	}

	return rows
}
