package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gridmerge/internal/ir"
	"github.com/roach88/gridmerge/internal/testutil"
)

// Scenario defines a merge contract test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Aliases are merged over the built-in table unless DefaultAliases is false.
	Aliases map[string]string `yaml:"aliases,omitempty"`

	// DefaultAliases toggles the built-in alias table. Nil means true.
	DefaultAliases *bool `yaml:"default_aliases,omitempty"`

	// Periods are the inputs, in the order they are handed to the engine.
	Periods []PeriodInput `yaml:"periods"`

	// ExpectError is a substring the merge error must contain. When set the
	// merge is expected to fail and assertions are not evaluated.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate the merge outcome.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// PeriodInput is one period's grid, or the error reading it produces.
type PeriodInput struct {
	Year  int `yaml:"year"`
	Month int `yaml:"month"`

	// Source names the input in diagnostics. Defaults to TOP500_YYYYMM.csv.
	Source string `yaml:"source,omitempty"`

	// Grid is the raw content, one list per row.
	Grid [][]any `yaml:"grid,omitempty"`

	// Error makes every read of this period fail with the given message.
	Error string `yaml:"error,omitempty"`

	// FailAfter makes reads fail once this many have succeeded. Zero
	// disables it. A value of 1 fails the second pass only.
	FailAfter int `yaml:"fail_after,omitempty"`
}

// Period returns the input's period.
func (p PeriodInput) Period() ir.Period {
	return ir.Period{Year: p.Year, Month: p.Month}
}

// Name returns the input's source name.
func (p PeriodInput) Name() string {
	if p.Source != "" {
		return p.Source
	}
	return fmt.Sprintf("TOP500_%04d%02d.csv", p.Year, p.Month)
}

// Assertion validates one aspect of the merge outcome.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Headers is the exact finalized header list (headers).
	Headers []string `yaml:"headers,omitempty"`

	// Period selects a period as "YEAR/MONTH" (diagnostic, period_status).
	Period string `yaml:"period,omitempty"`

	// New, Dropped and Renamed are compared exactly (diagnostic).
	// Renames are written "From to To".
	New     []string `yaml:"new,omitempty"`
	Dropped []string `yaml:"dropped,omitempty"`
	Renamed []string `yaml:"renamed,omitempty"`
	Blank   bool     `yaml:"blank,omitempty"`

	// Status is the expected period status (period_status).
	Status string `yaml:"status,omitempty"`

	// Rows is the expected row count of the period (period_status), or nil
	// to skip the check.
	Rows *int `yaml:"rows,omitempty"`

	// Count is the expected number of table rows (row_count).
	Count int `yaml:"count,omitempty"`

	// Row and Column address a table cell (cell). Row is zero-based.
	Row    int    `yaml:"row,omitempty"`
	Column string `yaml:"column,omitempty"`

	// Value is the expected cell value. Empty expects a blank cell instead.
	Value any  `yaml:"value,omitempty"`
	Empty bool `yaml:"empty,omitempty"`
}

// Assertion type constants.
const (
	AssertHeaders      = "headers"
	AssertDiagnostic   = "diagnostic"
	AssertPeriodStatus = "period_status"
	AssertRowCount     = "row_count"
	AssertCell         = "cell"
)

var statuses = map[string]bool{
	ir.StatusMerged:  true,
	ir.StatusBlank:   true,
	ir.StatusSkipped: true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", filepath.Base(path), s.Name, prev)
		}
		seen[s.Name] = filepath.Base(path)
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Periods) == 0 {
		return fmt.Errorf("periods list is required and must be non-empty")
	}

	for i, p := range s.Periods {
		if err := validatePeriod(i, p); err != nil {
			return err
		}
	}

	if s.ExpectError == "" && len(s.Assertions) == 0 {
		return fmt.Errorf("assertions are required unless expect_error is set")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

func validatePeriod(index int, p PeriodInput) error {
	if !p.Period().Valid() {
		return fmt.Errorf("periods[%d]: invalid period %d/%d", index, p.Year, p.Month)
	}
	if p.Error != "" && len(p.Grid) > 0 {
		return fmt.Errorf("periods[%d]: grid and error are mutually exclusive", index)
	}
	if p.FailAfter < 0 {
		return fmt.Errorf("periods[%d]: fail_after must be non-negative", index)
	}
	if _, err := testutil.GridOf(p.Grid); err != nil {
		return fmt.Errorf("periods[%d]: %w", index, err)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertHeaders:
		if len(a.Headers) == 0 {
			return fmt.Errorf("assertions[%d]: headers requires a headers list", index)
		}
	case AssertDiagnostic:
		if _, err := ir.ParsePeriod(a.Period); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertPeriodStatus:
		if _, err := ir.ParsePeriod(a.Period); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if !statuses[a.Status] {
			return fmt.Errorf("assertions[%d]: unknown status %q", index, a.Status)
		}
	case AssertRowCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertCell:
		if a.Column == "" {
			return fmt.Errorf("assertions[%d]: cell requires a column", index)
		}
		if a.Row < 0 {
			return fmt.Errorf("assertions[%d]: row must be non-negative", index)
		}
		if a.Value == nil && !a.Empty {
			return fmt.Errorf("assertions[%d]: cell requires value or empty", index)
		}
		if a.Value != nil && a.Empty {
			return fmt.Errorf("assertions[%d]: value and empty are mutually exclusive", index)
		}
		if _, err := testutil.CellOf(a.Value); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}
	return nil
}
