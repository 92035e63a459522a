package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/gridmerge/internal/ir"
	"github.com/roach88/gridmerge/internal/testutil"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Subject  string // What was checked, e.g. "period 2000/6"
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Subject != "" {
		fmt.Fprintf(&buf, " (%s)", e.Subject)
	}
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions runs every assertion against result and returns one
// message per failure. Assertions against a failed merge all fail.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	if result.Merge == nil {
		return fmt.Errorf("no merge result to assert %s against", a.Type)
	}

	switch a.Type {
	case AssertHeaders:
		return assertHeaders(result, a)
	case AssertDiagnostic:
		return assertDiagnostic(result, a)
	case AssertPeriodStatus:
		return assertPeriodStatus(result, a)
	case AssertRowCount:
		return assertRowCount(result, a)
	case AssertCell:
		return assertCell(result, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertHeaders(result *Result, a Assertion) error {
	got := result.Headers()
	if !equalNames(got, a.Headers) {
		return &AssertionError{
			Type:     AssertHeaders,
			Expected: formatNames(a.Headers),
			Actual:   formatNames(got),
		}
	}
	return nil
}

// assertDiagnostic compares new, dropped and renamed exactly. A period with
// no recorded diagnostic matches an assertion that expects nothing.
func assertDiagnostic(result *Result, a Assertion) error {
	p, err := ir.ParsePeriod(a.Period)
	if err != nil {
		return err
	}
	d, _ := result.Diagnostic(p)

	renamed := make([]string, len(d.Renamed))
	for i, r := range d.Renamed {
		renamed[i] = r.String()
	}

	var diffs []string
	if !equalNames(d.New, a.New) {
		diffs = append(diffs, fmt.Sprintf("new %s, want %s", formatNames(d.New), formatNames(a.New)))
	}
	if !equalNames(d.Dropped, a.Dropped) {
		diffs = append(diffs, fmt.Sprintf("dropped %s, want %s", formatNames(d.Dropped), formatNames(a.Dropped)))
	}
	if !equalNames(renamed, a.Renamed) {
		diffs = append(diffs, fmt.Sprintf("renamed %s, want %s", formatNames(renamed), formatNames(a.Renamed)))
	}
	if d.Blank != a.Blank {
		diffs = append(diffs, fmt.Sprintf("blank %t, want %t", d.Blank, a.Blank))
	}
	if len(diffs) == 0 {
		return nil
	}

	return &AssertionError{
		Type:     AssertDiagnostic,
		Subject:  "period " + p.String(),
		Expected: "matching diagnostic",
		Actual:   strings.Join(diffs, "; "),
	}
}

func assertPeriodStatus(result *Result, a Assertion) error {
	p, err := ir.ParsePeriod(a.Period)
	if err != nil {
		return err
	}
	s, ok := result.Status(p)
	if !ok {
		return &AssertionError{
			Type:     AssertPeriodStatus,
			Subject:  "period " + p.String(),
			Expected: a.Status,
			Actual:   "period not processed",
		}
	}
	if s.Status != a.Status {
		return &AssertionError{
			Type:     AssertPeriodStatus,
			Subject:  "period " + p.String(),
			Expected: a.Status,
			Actual:   s.Status,
		}
	}
	if a.Rows != nil && s.Rows != *a.Rows {
		return &AssertionError{
			Type:     AssertPeriodStatus,
			Subject:  "period " + p.String(),
			Expected: fmt.Sprintf("%d rows", *a.Rows),
			Actual:   fmt.Sprintf("%d rows", s.Rows),
		}
	}
	return nil
}

func assertRowCount(result *Result, a Assertion) error {
	if got := len(result.Merge.Rows); got != a.Count {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows", a.Count),
			Actual:   fmt.Sprintf("%d rows", got),
		}
	}
	return nil
}

func assertCell(result *Result, a Assertion) error {
	subject := fmt.Sprintf("row %d, column %s", a.Row, a.Column)
	rows := result.Merge.Rows
	if a.Row >= len(rows) {
		return &AssertionError{
			Type:     AssertCell,
			Subject:  subject,
			Expected: fmt.Sprintf("at least %d rows", a.Row+1),
			Actual:   fmt.Sprintf("%d rows", len(rows)),
		}
	}
	if !result.Merge.Headers.Contains(a.Column) {
		return &AssertionError{
			Type:     AssertCell,
			Subject:  subject,
			Expected: "column " + a.Column,
			Actual:   "no such column in " + formatNames(result.Headers()),
		}
	}

	got := rows[a.Row].Get(result.Merge.Headers, a.Column)
	if a.Empty {
		if !got.IsBlank() {
			return &AssertionError{Type: AssertCell, Subject: subject, Expected: "blank", Actual: describeCell(got)}
		}
		return nil
	}

	want, err := testutil.CellOf(a.Value)
	if err != nil {
		return err
	}
	if !sameCell(got, want) {
		return &AssertionError{Type: AssertCell, Subject: subject, Expected: describeCell(want), Actual: describeCell(got)}
	}
	return nil
}

func describeCell(c ir.Cell) string {
	if c.Kind == ir.CellEmpty {
		return "empty"
	}
	return fmt.Sprintf("%s %q", c.Kind, c.Text())
}

// equalNames treats nil and empty lists as equal.
func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatNames(names []string) string {
	return "[" + strings.Join(names, ", ") + "]"
}
