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

// ListRuns returns run summaries, newest first.
//
// Returns an empty slice (not nil) when the store has no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, created_at, aliases, engine_version, schema_version, row_count, skipped_count
		FROM runs
		ORDER BY seq DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns one run with its headers and period statuses.
// Returns an error wrapping ErrRunNotFound for unknown ids.
func (s *Store) ReadRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, created_at, aliases, engine_version, schema_version, row_count, skipped_count
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}

	if run.Headers, err = s.readHeaders(ctx, id); err != nil {
		return nil, err
	}
	if run.Periods, err = s.readPeriods(ctx, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// ReadDiagnostics returns a run's diagnostics in period order.
func (s *Store) ReadDiagnostics(ctx context.Context, id string) ([]ir.Diagnostic, error) {
	if err := s.checkRun(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM run_diagnostics
		WHERE run_id = ?
		ORDER BY ordinal ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	diagnostics := []ir.Diagnostic{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		var d ir.Diagnostic
		if err := json.Unmarshal([]byte(body), &d); err != nil {
			return nil, fmt.Errorf("unmarshal diagnostic: %w", err)
		}
		diagnostics = append(diagnostics, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return diagnostics, nil
}

// ReadRows returns a run's merged rows in their original order.
func (s *Store) ReadRows(ctx context.Context, id string) ([]ir.CanonicalRow, error) {
	if err := s.checkRun(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT year, month, cells FROM run_rows
		WHERE run_id = ?
		ORDER BY ordinal ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	out := []ir.CanonicalRow{}
	for rows.Next() {
		var (
			row   ir.CanonicalRow
			cells string
		)
		if err := rows.Scan(&row.Period.Year, &row.Period.Month, &cells); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(cells), &row.Values); err != nil {
			return nil, fmt.Errorf("unmarshal row cells: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func (s *Store) checkRun(ctx context.Context, id string) error {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT seq FROM runs WHERE id = ?`, id).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return fmt.Errorf("read run %s: %w", id, err)
	}
	return nil
}

func (s *Store) readHeaders(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM run_headers
		WHERE run_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query headers: %w", err)
	}
	defer rows.Close()

	headers := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan header: %w", err)
		}
		headers = append(headers, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate headers: %w", err)
	}
	return headers, nil
}

func (s *Store) readPeriods(ctx context.Context, id string) ([]ir.PeriodStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT year, month, source, status, row_count, error FROM run_periods
		WHERE run_id = ?
		ORDER BY ordinal ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query periods: %w", err)
	}
	defer rows.Close()

	periods := []ir.PeriodStatus{}
	for rows.Next() {
		var p ir.PeriodStatus
		if err := rows.Scan(&p.Period.Year, &p.Period.Month, &p.Source, &p.Status, &p.Rows, &p.Error); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate periods: %w", err)
	}
	return periods, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run       Run
		createdAt string
		aliases   string
	)
	err := row.Scan(
		&run.Seq,
		&run.ID,
		&createdAt,
		&aliases,
		&run.EngineVersion,
		&run.SchemaVersion,
		&run.RowCount,
		&run.SkippedCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Run{}, fmt.Errorf("parse created_at for run %s: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(aliases), &run.Aliases); err != nil {
		return Run{}, fmt.Errorf("unmarshal aliases for run %s: %w", run.ID, err)
	}
	return run, nil
}
