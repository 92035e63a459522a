// Package manifest loads run manifests describing which period files to
// merge and how to read them.
//
// A manifest may be written in YAML, TOML or CUE; the format is chosen by
// file extension. CUE manifests are checked against an embedded schema.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/roach88/gridmerge/internal/grid"
	"github.com/roach88/gridmerge/internal/ir"
)

// Manifest describes one merge run.
type Manifest struct {
	// Aliases maps raw header spellings to canonical spellings. Entries
	// override the built-in table.
	Aliases map[string]string `yaml:"aliases,omitempty" toml:"aliases,omitempty" json:"aliases,omitempty"`

	// DefaultAliases controls whether the built-in alias table applies.
	// Nil means true.
	DefaultAliases *bool `yaml:"default_aliases,omitempty" toml:"default_aliases,omitempty" json:"default_aliases,omitempty"`

	// Dir and Pattern discover period files when Periods is empty.
	Dir     string `yaml:"dir,omitempty" toml:"dir,omitempty" json:"dir,omitempty"`
	Pattern string `yaml:"pattern,omitempty" toml:"pattern,omitempty" json:"pattern,omitempty"`

	// Encoding, Delimiter and Sheet apply to every period file.
	Encoding  string `yaml:"encoding,omitempty" toml:"encoding,omitempty" json:"encoding,omitempty"`
	Delimiter string `yaml:"delimiter,omitempty" toml:"delimiter,omitempty" json:"delimiter,omitempty"`
	Sheet     string `yaml:"sheet,omitempty" toml:"sheet,omitempty" json:"sheet,omitempty"`

	// Output is the default destination of the merged table.
	Output string `yaml:"output,omitempty" toml:"output,omitempty" json:"output,omitempty"`

	// Periods lists period files explicitly.
	Periods []PeriodEntry `yaml:"periods,omitempty" toml:"periods,omitempty" json:"periods,omitempty"`

	// base is the directory relative paths resolve against.
	base string
}

// PeriodEntry binds one file to its reporting period.
type PeriodEntry struct {
	Year  int    `yaml:"year" toml:"year" json:"year"`
	Month int    `yaml:"month" toml:"month" json:"month"`
	File  string `yaml:"file" toml:"file" json:"file"`
	Sheet string `yaml:"sheet,omitempty" toml:"sheet,omitempty" json:"sheet,omitempty"`
}

// Period returns the entry's period.
func (e PeriodEntry) Period() ir.Period {
	return ir.Period{Year: e.Year, Month: e.Month}
}

// Load reads and validates a manifest. Relative paths inside it resolve
// against the manifest's own directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m *Manifest
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		m, err = decodeYAML(data)
	case ".toml":
		m, err = decodeTOML(data)
	case ".cue":
		m, err = decodeCUE(path, data)
	default:
		return nil, fmt.Errorf("unsupported manifest format %q: use .yaml, .toml or .cue", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", filepath.Base(path), err)
	}

	m.base = filepath.Dir(path)
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", filepath.Base(path), err)
	}
	return m, nil
}

// Validate checks field values. It collects every problem into one error.
func (m *Manifest) Validate() error {
	var errs []string

	if err := grid.CheckEncoding(m.Encoding); err != nil {
		errs = append(errs, err.Error())
	}
	if m.Delimiter != "" && utf8.RuneCountInString(m.Delimiter) != 1 {
		errs = append(errs, fmt.Sprintf("delimiter %q must be a single character", m.Delimiter))
	}
	if len(m.Periods) > 0 && m.Dir != "" {
		errs = append(errs, "periods and dir are mutually exclusive")
	}

	seen := make(map[ir.Period]bool)
	for i, p := range m.Periods {
		if !p.Period().Valid() {
			errs = append(errs, fmt.Sprintf("periods[%d]: invalid period %s", i, p.Period()))
		}
		if p.File == "" {
			errs = append(errs, fmt.Sprintf("periods[%d]: file is required", i))
		}
		if seen[p.Period()] {
			errs = append(errs, fmt.Sprintf("periods[%d]: duplicate period %s", i, p.Period()))
		}
		seen[p.Period()] = true
	}

	for raw, canonical := range m.Aliases {
		if raw == "" || canonical == "" {
			errs = append(errs, fmt.Sprintf("alias %q -> %q: empty header name", raw, canonical))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// UseDefaultAliases reports whether the built-in alias table applies.
func (m *Manifest) UseDefaultAliases() bool {
	return m.DefaultAliases == nil || *m.DefaultAliases
}

// GridOptions returns the parsing options for period files.
func (m *Manifest) GridOptions() grid.Options {
	opts := grid.Options{Encoding: m.Encoding, Sheet: m.Sheet}
	if m.Delimiter != "" {
		opts.Delimiter, _ = utf8.DecodeRuneInString(m.Delimiter)
	}
	return opts
}

// Resolve joins a manifest-relative path with the manifest directory.
func (m *Manifest) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || m.base == "" {
		return path
	}
	return filepath.Join(m.base, path)
}

// Sources returns one file source per period, sorted chronologically.
// Explicit periods win; otherwise files are discovered under Dir.
func (m *Manifest) Sources() ([]*grid.FileSource, error) {
	opts := m.GridOptions()

	if len(m.Periods) == 0 {
		if m.Dir == "" {
			return nil, fmt.Errorf("manifest lists no periods and no dir")
		}
		return grid.Discover(m.Resolve(m.Dir), m.Pattern, opts)
	}

	sources := make([]*grid.FileSource, 0, len(m.Periods))
	for _, p := range m.Periods {
		o := opts
		if p.Sheet != "" {
			o.Sheet = p.Sheet
		}
		sources = append(sources, grid.NewFileSource(p.Period(), m.Resolve(p.File), o))
	}
	sortSources(sources)
	return sources, nil
}
