package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/gridmerge/internal/ir"
)

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted merge result. Summary fields are always populated;
// Headers and Periods are filled by ReadRun only.
type Run struct {
	ID            string            `json:"id"`
	Seq           int64             `json:"seq"`
	CreatedAt     time.Time         `json:"created_at"`
	Aliases       map[string]string `json:"aliases"`
	EngineVersion string            `json:"engine_version"`
	SchemaVersion string            `json:"schema_version"`
	RowCount      int               `json:"row_count"`
	SkippedCount  int               `json:"skipped_count"`

	Headers []string          `json:"headers,omitempty"`
	Periods []ir.PeriodStatus `json:"periods,omitempty"`
}

// RunInput is everything WriteRun persists.
type RunInput struct {
	ID          string
	CreatedAt   time.Time
	Aliases     map[string]string
	Headers     []string
	Periods     []ir.PeriodStatus
	Diagnostics []ir.Diagnostic
	Rows        []ir.CanonicalRow
}

// WriteRun inserts a run with its headers, period statuses, diagnostics
// and rows in one transaction. Writing an id twice fails.
func (s *Store) WriteRun(ctx context.Context, in RunInput) error {
	if in.ID == "" {
		return fmt.Errorf("write run: id is required")
	}

	aliases := in.Aliases
	if aliases == nil {
		aliases = map[string]string{}
	}
	aliasJSON, err := json.Marshal(aliases)
	if err != nil {
		return fmt.Errorf("write run: marshal aliases: %w", err)
	}

	skipped := 0
	for _, p := range in.Periods {
		if p.Status == ir.StatusSkipped {
			skipped++
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, created_at, aliases, engine_version, schema_version, row_count, skipped_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		in.ID,
		in.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(aliasJSON),
		ir.EngineVersion,
		ir.SchemaVersion,
		len(in.Rows),
		skipped,
	)
	if err != nil {
		return fmt.Errorf("write run %s: %w", in.ID, err)
	}

	if err := insertHeaders(ctx, tx, in.ID, in.Headers); err != nil {
		return err
	}
	if err := insertPeriods(ctx, tx, in.ID, in.Periods); err != nil {
		return err
	}
	if err := insertDiagnostics(ctx, tx, in.ID, in.Diagnostics); err != nil {
		return err
	}
	if err := insertRows(ctx, tx, in.ID, in.Rows); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run %s: commit: %w", in.ID, err)
	}
	return nil
}

func insertHeaders(ctx context.Context, tx *sql.Tx, runID string, headers []string) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_headers (run_id, position, name) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("write run headers: %w", err)
	}
	defer stmt.Close()

	for i, name := range headers {
		if _, err := stmt.ExecContext(ctx, runID, i, name); err != nil {
			return fmt.Errorf("write run header %q: %w", name, err)
		}
	}
	return nil
}

func insertPeriods(ctx context.Context, tx *sql.Tx, runID string, periods []ir.PeriodStatus) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_periods (run_id, ordinal, year, month, source, status, row_count, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write run periods: %w", err)
	}
	defer stmt.Close()

	for i, p := range periods {
		_, err := stmt.ExecContext(ctx, runID, i, p.Period.Year, p.Period.Month, p.Source, p.Status, p.Rows, p.Error)
		if err != nil {
			return fmt.Errorf("write run period %s: %w", p.Period, err)
		}
	}
	return nil
}

func insertDiagnostics(ctx context.Context, tx *sql.Tx, runID string, diagnostics []ir.Diagnostic) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_diagnostics (run_id, ordinal, year, month, body)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write run diagnostics: %w", err)
	}
	defer stmt.Close()

	for i, d := range diagnostics {
		body, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("marshal diagnostic %s: %w", d.Period, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, i, d.Period.Year, d.Period.Month, string(body)); err != nil {
			return fmt.Errorf("write run diagnostic %s: %w", d.Period, err)
		}
	}
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, runID string, rows []ir.CanonicalRow) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_rows (run_id, ordinal, year, month, cells)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write run rows: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		values := row.Values
		if values == nil {
			values = []ir.Cell{}
		}
		cells, err := json.Marshal(values)
		if err != nil {
			return fmt.Errorf("marshal row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, i, row.Period.Year, row.Period.Month, string(cells)); err != nil {
			return fmt.Errorf("write run row %d: %w", i, err)
		}
	}
	return nil
}
