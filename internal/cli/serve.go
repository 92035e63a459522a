package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/gridmerge/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Database string
	Addr     string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve persisted runs over HTTP",
		Long: `Start a read-only HTTP API over a run database.

Routes:
  GET /healthz
  GET /api/runs
  GET /api/runs/{runID}
  GET /api/runs/{runID}/diagnostics
  GET /api/runs/{runID}/table.csv
  GET /metrics (Prometheus)

Example:
  gridmerge serve --db runs.db --addr 127.0.0.1:8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run database (default $GRIDMERGE_DB)")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default $GRIDMERGE_ADDR or 127.0.0.1:8080)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := openExistingStore(opts.RootOptions, formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	cfg, _ := opts.Config()
	logger := opts.Logger(cmd.ErrOrStderr(), cfg)
	addr := firstNonEmpty(opts.Addr, cfg.Addr)

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	srv := server.New(st, logger)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", firstNonEmpty(opts.Database, cfg.Database), addr)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := srv.Run(ctx, addr); err != nil {
		return WrapExitError(ExitCommandError, "server error", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}
