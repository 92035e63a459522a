package grid

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/gridmerge/internal/ir"
)

// Options controls how source files are parsed.
type Options struct {
	// Encoding of CSV files (utf-8, windows-1252, latin1). Default utf-8.
	Encoding string

	// Delimiter for CSV files. Zero means ','.
	Delimiter rune

	// Sheet selects the XLSX worksheet. Empty means the first sheet.
	Sheet string
}

// Supported file extensions.
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
)

// IsSupported reports whether path has a readable extension.
func IsSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtCSV, ExtXLSX:
		return true
	default:
		return false
	}
}

// FileSource reads one period's grid from a file on every ReadGrid call.
// It satisfies engine.Source.
type FileSource struct {
	period ir.Period
	path   string
	opts   Options
}

// NewFileSource creates a source for path.
func NewFileSource(period ir.Period, path string, opts Options) *FileSource {
	return &FileSource{period: period, path: path, opts: opts}
}

// Period returns the reporting period the file belongs to.
func (s *FileSource) Period() ir.Period {
	return s.period
}

// Name returns the file's base name.
func (s *FileSource) Name() string {
	return filepath.Base(s.path)
}

// Path returns the full file path.
func (s *FileSource) Path() string {
	return s.path
}

// ReadGrid opens and parses the file. Failures are *ir.GridReadError.
func (s *FileSource) ReadGrid() (ir.Grid, error) {
	grid, err := s.read()
	if err != nil {
		return nil, &ir.GridReadError{Period: s.period, Source: s.Name(), Err: err}
	}
	return grid, nil
}

func (s *FileSource) read() (ir.Grid, error) {
	switch ext := strings.ToLower(filepath.Ext(s.path)); ext {
	case ExtCSV:
		f, err := os.Open(s.path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f, s.opts)
	case ExtXLSX:
		return ReadXLSX(s.path, s.opts.Sheet)
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
}
