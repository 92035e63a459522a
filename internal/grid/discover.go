package grid

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/roach88/gridmerge/internal/ir"
)

// DefaultPattern matches a YYYYMM stamp anywhere in a file name, as in
// TOP500_199306.xlsx.
const DefaultPattern = `(?P<year>\d{4})(?P<month>\d{2})`

// Discover lists the supported files in dir whose names match pattern and
// returns one source per file, sorted chronologically.
//
// pattern must define named groups "year" and "month". Files that do not
// match, or whose extension is not supported, are ignored. Two files for the
// same period are an error.
func Discover(dir, pattern string, opts Options) ([]*FileSource, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var sources []*FileSource
	owner := make(map[ir.Period]string)
	for _, entry := range entries {
		if entry.IsDir() || !IsSupported(entry.Name()) {
			continue
		}
		period, ok, err := matchPeriod(re, entry.Name())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if prev, dup := owner[period]; dup {
			return nil, fmt.Errorf("period %s matched by both %s and %s", period, prev, entry.Name())
		}
		owner[period] = entry.Name()
		sources = append(sources, NewFileSource(period, filepath.Join(dir, entry.Name()), opts))
	}

	slices.SortFunc(sources, func(a, b *FileSource) int {
		return a.Period().Compare(b.Period())
	})
	return sources, nil
}

// compilePattern compiles pattern and checks for the year and month groups.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	if re.SubexpIndex("year") < 0 || re.SubexpIndex("month") < 0 {
		return nil, fmt.Errorf("pattern %q must define named groups year and month", pattern)
	}
	return re, nil
}

// matchPeriod extracts the period from a file name.
func matchPeriod(re *regexp.Regexp, name string) (ir.Period, bool, error) {
	m := re.FindStringSubmatch(name)
	if m == nil {
		return ir.Period{}, false, nil
	}
	year, err := strconv.Atoi(m[re.SubexpIndex("year")])
	if err != nil {
		return ir.Period{}, false, fmt.Errorf("%s: invalid year: %w", name, err)
	}
	month, err := strconv.Atoi(m[re.SubexpIndex("month")])
	if err != nil {
		return ir.Period{}, false, fmt.Errorf("%s: invalid month: %w", name, err)
	}
	p := ir.Period{Year: year, Month: month}
	if !p.Valid() {
		return ir.Period{}, false, fmt.Errorf("%s: invalid period %s", name, p)
	}
	return p, true, nil
}
