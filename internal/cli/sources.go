package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/roach88/gridmerge/internal/config"
	"github.com/roach88/gridmerge/internal/engine"
	"github.com/roach88/gridmerge/internal/manifest"
)

// dumper renders manifests in debug logs.
var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// SourceOptions are the flags shared by commands that read period files.
// They override the corresponding manifest fields.
type SourceOptions struct {
	Dir              string
	Pattern          string
	Encoding         string
	Sheet            string
	Aliases          []string // RAW=CANONICAL
	NoDefaultAliases bool
}

func (o *SourceOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Dir, "dir", "", "directory to discover period files in")
	cmd.Flags().StringVar(&o.Pattern, "pattern", "", "file name regexp with year and month groups")
	cmd.Flags().StringVar(&o.Encoding, "encoding", "", "CSV encoding (utf-8|windows-1252|latin1)")
	cmd.Flags().StringVar(&o.Sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	cmd.Flags().StringArrayVar(&o.Aliases, "alias", nil, "header alias RAW=CANONICAL (repeatable)")
	cmd.Flags().BoolVar(&o.NoDefaultAliases, "no-default-aliases", false, "do not apply the built-in alias table")
}

// plan is a loaded manifest with its alias table and sources.
type plan struct {
	manifest *manifest.Manifest
	aliases  *engine.AliasTable
	sources  []engine.Source
}

// errNoSources marks a plan that resolved to zero period files.
var errNoSources = errors.New("no period files found")

// load builds the manifest from the optional manifest path and the flags,
// then resolves the alias table and sources.
func (o *SourceOptions) load(args []string, cfg *config.Config, logger *slog.Logger) (*plan, error) {
	m := &manifest.Manifest{}
	if len(args) > 0 {
		loaded, err := manifest.Load(args[0])
		if err != nil {
			return nil, err
		}
		m = loaded
	}

	if o.Dir != "" {
		m.Dir = o.Dir
		m.Periods = nil
	}
	m.Pattern = firstNonEmpty(o.Pattern, m.Pattern)
	m.Encoding = firstNonEmpty(o.Encoding, m.Encoding, cfg.Encoding)
	m.Sheet = firstNonEmpty(o.Sheet, m.Sheet)
	if o.NoDefaultAliases {
		off := false
		m.DefaultAliases = &off
	}

	flagAliases, err := parseAliases(o.Aliases)
	if err != nil {
		return nil, err
	}
	m.Aliases = engine.MergeAliases(m.Aliases, flagAliases)

	if err := m.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("manifest", "value", dumper.Sdump(m))

	var base map[string]string
	if m.UseDefaultAliases() {
		base = engine.DefaultAliases()
	}
	aliases, err := engine.NewAliasTable(engine.MergeAliases(base, m.Aliases))
	if err != nil {
		return nil, err
	}

	files, err := m.Sources()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", errNoSources, m.Resolve(m.Dir))
	}

	sources := make([]engine.Source, len(files))
	for i, f := range files {
		sources[i] = f
		logger.Debug("source", "period", f.Period().String(), "path", f.Path())
	}

	return &plan{manifest: m, aliases: aliases, sources: sources}, nil
}

// parseAliases parses RAW=CANONICAL flag values.
func parseAliases(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		raw, canonical, ok := strings.Cut(v, "=")
		if !ok || raw == "" || canonical == "" {
			return nil, fmt.Errorf("invalid --alias %q: want RAW=CANONICAL", v)
		}
		out[raw] = canonical
	}
	return out, nil
}

// loadError maps plan errors to CLI error codes.
func loadError(f *OutputFormatter, err error) error {
	switch {
	case errors.Is(err, errNoSources):
		return f.Fail(ExitCommandError, ErrCodeNoSources, err.Error())
	case errors.Is(err, engine.ErrAliasChain), strings.HasPrefix(err.Error(), "invalid --alias"):
		return f.Fail(ExitCommandError, ErrCodeInvalidFlag, err.Error())
	default:
		return f.Fail(ExitCommandError, ErrCodeManifest, err.Error())
	}
}
