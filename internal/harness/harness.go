package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/roach88/gridmerge/internal/engine"
	"github.com/roach88/gridmerge/internal/ir"
	"github.com/roach88/gridmerge/internal/store"
	"github.com/roach88/gridmerge/internal/testutil"
)

// Epoch is the fixed creation time of every run the harness persists.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness is the scenario execution engine. It runs merges with a
// deterministic clock and run ids against an isolated store.
type Harness struct {
	store  *store.Store
	ids    store.IDGenerator
	clock  *testutil.DeterministicClock
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Build the alias table and period sources
// 2. Merge the sources with the real engine
// 3. Persist the merge and read it back
// 4. Check invariants and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		ids:    store.NewFixedGenerator("scenario-" + scenario.Name),
		clock:  testutil.NewDeterministicClock(Epoch, time.Second),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	aliases := aliasMap(scenario)
	table, err := engine.NewAliasTable(aliases)
	if err != nil {
		return nil, fmt.Errorf("alias table: %w", err)
	}

	sources, err := buildSources(scenario.Periods)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	eng := engine.New(table, engine.WithLogger(h.logger))
	merged, err := eng.Merge(sources)
	if scenario.ExpectError != "" {
		checkExpectedError(result, scenario.ExpectError, err)
		result.MergeErr = err
		return result, nil
	}
	if err != nil {
		result.MergeErr = err
		result.AddError(fmt.Sprintf("merge failed: %v", err))
		return result, nil
	}
	result.Merge = merged

	if err := h.persist(ctx, aliases, result); err != nil {
		return nil, err
	}

	for _, msg := range CheckInvariants(merged) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// persist writes the merge to the store and verifies the stored copy
// matches what the engine produced.
func (h *Harness) persist(ctx context.Context, aliases map[string]string, result *Result) error {
	merged := result.Merge
	id := h.ids.Generate()

	err := h.store.WriteRun(ctx, store.RunInput{
		ID:          id,
		CreatedAt:   h.clock.Now(),
		Aliases:     aliases,
		Headers:     merged.Headers.Names(),
		Periods:     merged.Periods,
		Diagnostics: merged.Diagnostics,
		Rows:        merged.Rows,
	})
	if err != nil {
		return fmt.Errorf("persist run: %w", err)
	}
	result.RunID = id

	run, err := h.store.ReadRun(ctx, id)
	if err != nil {
		return fmt.Errorf("read run: %w", err)
	}
	if !slices.Equal(run.Headers, merged.Headers.Names()) {
		result.AddError(fmt.Sprintf("stored headers %v differ from merged headers %v", run.Headers, merged.Headers.Names()))
	}
	if run.RowCount != len(merged.Rows) {
		result.AddError(fmt.Sprintf("stored row count %d, merged %d", run.RowCount, len(merged.Rows)))
	}

	rows, err := h.store.ReadRows(ctx, id)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}
	if msg := diffRows(merged.Rows, rows); msg != "" {
		result.AddError("stored rows differ: " + msg)
	}

	return nil
}

func aliasMap(s *Scenario) map[string]string {
	if s.DefaultAliases != nil && !*s.DefaultAliases {
		return engine.MergeAliases(s.Aliases)
	}
	return engine.MergeAliases(engine.DefaultAliases(), s.Aliases)
}

// buildSources turns period inputs into engine sources. Order is kept as
// written so scenarios can exercise ordering errors.
func buildSources(periods []PeriodInput) ([]engine.Source, error) {
	sources := make([]engine.Source, 0, len(periods))
	for _, p := range periods {
		if p.Error != "" {
			msg := p.Error
			sources = append(sources, engine.NewSource(p.Period(), p.Name(), func() (ir.Grid, error) {
				return nil, errors.New(msg)
			}))
			continue
		}

		grid, err := testutil.GridOf(p.Grid)
		if err != nil {
			return nil, fmt.Errorf("period %s: %w", p.Period(), err)
		}
		if p.FailAfter == 0 {
			sources = append(sources, engine.StaticSource(p.Period(), p.Name(), grid))
			continue
		}
		sources = append(sources, engine.NewSource(p.Period(), p.Name(), flakyRead(grid, p.FailAfter)))
	}
	return sources, nil
}

// flakyRead returns a reader that succeeds n times, then fails.
func flakyRead(grid ir.Grid, n int) engine.GridFunc {
	var mu sync.Mutex
	reads := 0
	return func() (ir.Grid, error) {
		mu.Lock()
		defer mu.Unlock()
		reads++
		if reads > n {
			return nil, fmt.Errorf("read %d failed: source changed", reads)
		}
		return grid, nil
	}
}

func checkExpectedError(result *Result, want string, err error) {
	if err == nil {
		result.AddError(fmt.Sprintf("expected merge error containing %q, merge succeeded", want))
		return
	}
	if !strings.Contains(err.Error(), want) {
		result.AddError(fmt.Sprintf("expected merge error containing %q, got %q", want, err.Error()))
	}
}

// diffRows describes the first difference between two row lists, or
// returns "" when they match.
func diffRows(want, got []ir.CanonicalRow) string {
	if len(want) != len(got) {
		return fmt.Sprintf("%d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if want[i].Period != got[i].Period {
			return fmt.Sprintf("row %d: period %s, want %s", i, got[i].Period, want[i].Period)
		}
		if len(want[i].Values) != len(got[i].Values) {
			return fmt.Sprintf("row %d: %d values, want %d", i, len(got[i].Values), len(want[i].Values))
		}
		for j := range want[i].Values {
			if !sameCell(want[i].Values[j], got[i].Values[j]) {
				return fmt.Sprintf("row %d col %d: %q, want %q", i, j, got[i].Values[j].Text(), want[i].Values[j].Text())
			}
		}
	}
	return ""
}

func sameCell(a, b ir.Cell) bool {
	return a.Kind == b.Kind && a.Text() == b.Text()
}
