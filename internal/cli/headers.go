package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gridmerge/internal/engine"
	"github.com/roach88/gridmerge/internal/report"
)

// HeadersOptions holds flags for the headers command.
type HeadersOptions struct {
	*RootOptions
	SourceOptions

	Wrap int
}

// NewHeadersCommand creates the headers command.
func NewHeadersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HeadersOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "headers [manifest]",
		Short: "Report header changes without merging rows",
		Long: `Run only the header pass: read each period's header row, apply the alias
table and report renamed, new and dropped headers, then print the final
canonical header order. No rows are mapped and nothing is written.

Examples:
  gridmerge headers --dir ./lists
  gridmerge headers top500.toml --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeaders(opts, args, cmd)
		},
	}

	opts.SourceOptions.bind(cmd)
	cmd.Flags().IntVar(&opts.Wrap, "wrap", 0, "wrap report lines at this column (default 70)")

	return cmd
}

func runHeaders(opts *HeadersOptions, args []string, cmd *cobra.Command) error {
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

	rec, err := engine.New(p.aliases, engine.WithLogger(logger)).Reconcile(p.sources)
	if err != nil {
		if errors.Is(err, engine.ErrPeriodOrder) {
			return formatter.Fail(ExitCommandError, ErrCodePeriodOrder, err.Error())
		}
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error())
	}

	rep := report.New(rec.Headers, rec.Diagnostics, rec.Periods)
	if opts.Format == "json" {
		return formatter.Success(rep)
	}

	wrap := opts.Wrap
	if wrap <= 0 {
		wrap = cfg.WrapWidth
	}
	w := cmd.OutOrStdout()
	if err := rep.WriteText(w, wrap); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error())
	}
	if err := rep.WriteHeaders(w, wrap); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error())
	}
	if n := rep.Skipped(); n > 0 {
		fmt.Fprintf(w, "Skipped %d period(s)\n", n)
	}
	return nil
}
