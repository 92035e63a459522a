package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gridmerge/internal/output"
	"github.com/roach88/gridmerge/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	RunID    string
	Output   string
}

// ExportResult is the JSON payload of a successful export.
type ExportResult struct {
	RunID  string `json:"run_id"`
	Output string `json:"output"`
	Rows   int    `json:"rows"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a persisted run's table to a file",
		Long: `Re-emit the merged table of a persisted run as CSV or XLSX.

Examples:
  gridmerge export --db runs.db --run 0190f0c2-... -o history.xlsx
  gridmerge export --db runs.db --run 0190f0c2-... -o -`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run database (default $GRIDMERGE_DB)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to export (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (.csv, .xlsx or - for stdout; default history.csv)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := openExistingStore(opts.RootOptions, formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	cfg, _ := opts.Config()
	dest := firstNonEmpty(opts.Output, cfg.Output)
	if err := output.CheckDestination(dest); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidFlag, err.Error())
	}

	ctx := commandContext(cmd)
	run, err := st.ReadRun(ctx, opts.RunID)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID))
		}
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error())
	}
	rows, err := st.ReadRows(ctx, opts.RunID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error())
	}

	if err := output.WriteFile(dest, cmd.OutOrStdout(), output.Table{Headers: run.Headers, Rows: rows}); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error())
	}

	// Stdout carries the table; the summary goes to stderr.
	summary := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if dest == output.Stdout {
		summary.Writer = cmd.ErrOrStderr()
	}
	if opts.Format == "json" {
		return summary.Success(ExportResult{RunID: run.ID, Output: dest, Rows: len(rows)})
	}
	fmt.Fprintf(summary.Writer, "Exported %d rows from run %s to %s\n", len(rows), run.ID, dest)
	return nil
}
