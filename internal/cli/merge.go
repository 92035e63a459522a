package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/gridmerge/internal/engine"
	"github.com/roach88/gridmerge/internal/ir"
	"github.com/roach88/gridmerge/internal/output"
	"github.com/roach88/gridmerge/internal/report"
	"github.com/roach88/gridmerge/internal/store"
)

// MergeOptions holds flags for the merge command.
type MergeOptions struct {
	*RootOptions
	SourceOptions

	Output   string
	Database string
	Wrap     int
	Strict   bool

	// IDGenerator overrides run id generation (for testing).
	// If nil, defaults to store.UUIDv7Generator.
	IDGenerator store.IDGenerator

	// Now overrides the run timestamp clock (for testing).
	Now func() time.Time
}

// MergeResult is the JSON payload of a successful merge.
type MergeResult struct {
	Output  string         `json:"output"`
	RunID   string         `json:"run_id,omitempty"`
	Rows    int            `json:"rows"`
	Periods int            `json:"periods"`
	Skipped int            `json:"skipped"`
	Report  *report.Report `json:"report"`
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	return newMergeCommand(&MergeOptions{RootOptions: rootOpts})
}

func newMergeCommand(opts *MergeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge [manifest]",
		Short: "Merge period files into one table",
		Long: `Merge every period file into one table over the canonical header set.

Pass 1 reads each period's header row in chronological order, applies the
alias table and grows the canonical header set, reporting renamed, new and
dropped headers. Pass 2 re-reads every period and maps its rows onto the
final header order. Periods that cannot be read are reported and skipped.

Period files come from a manifest (YAML, TOML or CUE) or from --dir, where
file names are matched against --pattern.

Exit codes:
  0 - Merge written
  1 - Merge written, but periods were skipped and --strict is set
  2 - Command error (bad manifest, no files, write failure, etc.)

Examples:
  gridmerge merge --dir ./lists -o history.csv
  gridmerge merge top500.yaml --db runs.db
  gridmerge merge --dir ./lists --alias "Nmax=NMax" -o history.xlsx --strict`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(opts, args, cmd)
		},
	}

	opts.SourceOptions.bind(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (.csv, .xlsx or - for stdout; default history.csv)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "persist the run to this SQLite database")
	cmd.Flags().IntVar(&opts.Wrap, "wrap", 0, "wrap report lines at this column (default 70)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 when any period was skipped")

	return cmd
}

func runMerge(opts *MergeOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.Config()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidFlag, err.Error())
	}
	logger := opts.Logger(cmd.ErrOrStderr(), cfg)

	p, err := opts.SourceOptions.load(args, cfg, logger)
	if err != nil {
		return loadError(formatter, err)
	}

	dest := firstNonEmpty(opts.Output, p.manifest.Resolve(p.manifest.Output), cfg.Output)
	if err := output.CheckDestination(dest); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidFlag, err.Error())
	}

	eng := engine.New(p.aliases, engine.WithLogger(logger))
	result, err := eng.Merge(p.sources)
	if err != nil {
		if errors.Is(err, engine.ErrPeriodOrder) {
			return formatter.Fail(ExitCommandError, ErrCodePeriodOrder, err.Error())
		}
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error())
	}

	formatter.VerboseLog("Periods by status: %v", summarizePeriods(result.Periods))

	table := output.Table{Headers: result.Headers.Names(), Rows: result.Rows}
	if err := output.WriteFile(dest, cmd.OutOrStdout(), table); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error())
	}
	logger.Info("table written", "output", dest, "rows", len(result.Rows))

	runID := ""
	if db := firstNonEmpty(opts.Database, cfg.Database); db != "" {
		runID, err = persistRun(cmd.Context(), opts, db, p.aliases, result)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error())
		}
		logger.Info("run persisted", "db", db, "run", runID)
	}

	rep := report.New(result.Headers, result.Diagnostics, result.Periods)
	mr := MergeResult{
		Output:  dest,
		RunID:   runID,
		Rows:    len(result.Rows),
		Periods: len(result.Periods),
		Skipped: rep.Skipped(),
		Report:  rep,
	}

	// The table owns stdout when it is written there.
	reportOut := cmd.OutOrStdout()
	if dest == output.Stdout {
		reportOut = cmd.ErrOrStderr()
	}
	if err := writeMergeSummary(opts, reportOut, mr, cfg.WrapWidth); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error())
	}

	if opts.Strict && mr.Skipped > 0 {
		return NewExitError(ExitFailure,
			fmt.Sprintf("%s: %d period(s) skipped", ErrCodeSkipped, mr.Skipped))
	}
	return nil
}

func writeMergeSummary(opts *MergeOptions, w io.Writer, mr MergeResult, defaultWrap int) error {
	if opts.Format == "json" {
		f := &OutputFormatter{Format: "json", Writer: w}
		return f.Success(mr)
	}

	wrap := opts.Wrap
	if wrap <= 0 {
		wrap = defaultWrap
	}
	if err := mr.Report.WriteText(w, wrap); err != nil {
		return err
	}

	fmt.Fprintf(w, "Merged %d rows from %d period(s) into %s (%d headers)\n",
		mr.Rows, mr.Periods-mr.Skipped, mr.Output, len(mr.Report.Headers))
	if mr.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d period(s)\n", mr.Skipped)
	}
	if mr.RunID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", mr.RunID)
	}
	return nil
}

func persistRun(ctx context.Context, opts *MergeOptions, db string, aliases *engine.AliasTable, result *engine.Result) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(db)
	if err != nil {
		return "", err
	}
	defer st.Close()

	gen := opts.IDGenerator
	if gen == nil {
		gen = store.UUIDv7Generator{}
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	in := store.RunInput{
		ID:          gen.Generate(),
		CreatedAt:   now(),
		Aliases:     aliasMap(aliases),
		Headers:     result.Headers.Names(),
		Periods:     result.Periods,
		Diagnostics: result.Diagnostics,
		Rows:        result.Rows,
	}
	if err := st.WriteRun(ctx, in); err != nil {
		return "", err
	}
	return in.ID, nil
}

func aliasMap(t *engine.AliasTable) map[string]string {
	out := make(map[string]string, t.Len())
	for _, r := range t.Entries() {
		out[r.From] = r.To
	}
	return out
}

// summarizePeriods counts periods per status, for verbose output.
func summarizePeriods(periods []ir.PeriodStatus) map[string]int {
	counts := make(map[string]int)
	for _, p := range periods {
		counts[p.Status]++
	}
	return counts
}
