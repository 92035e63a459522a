package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/gridmerge/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List persisted merge runs",
		Long: `List the merge runs recorded in a run database, newest first.

Examples:
  gridmerge runs --db runs.db
  gridmerge runs --db runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run database (default $GRIDMERGE_DB)")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := openExistingStore(opts.RootOptions, formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(commandContext(cmd))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error())
	}

	if opts.Format == "json" {
		return formatter.Success(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tROWS\tSKIPPED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", r.ID, r.CreatedAt.Format(time.RFC3339), r.RowCount, r.SkippedCount)
	}
	return tw.Flush()
}

// openExistingStore opens a run database that must already exist.
func openExistingStore(root *RootOptions, formatter *OutputFormatter, flagValue string) (*store.Store, error) {
	cfg, err := root.Config()
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeInvalidFlag, err.Error())
	}

	path := firstNonEmpty(flagValue, cfg.Database)
	if path == "" {
		return nil, formatter.Fail(ExitCommandError, ErrCodeInvalidFlag, "--db is required (or set GRIDMERGE_DB)")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", path))
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error())
	}
	return st, nil
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
