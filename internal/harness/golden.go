package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/gridmerge/internal/output"
	"github.com/roach88/gridmerge/internal/report"
)

// Snapshot renders a merge the way a person would see it: the text report
// followed by the CSV table.
func Snapshot(name string, result *Result) ([]byte, error) {
	if result.Merge == nil {
		return nil, fmt.Errorf("scenario %s: no merge result to snapshot", name)
	}
	merged := result.Merge

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# scenario: %s\n", name)
	fmt.Fprintf(&buf, "# report\n")
	rep := report.New(merged.Headers, merged.Diagnostics, merged.Periods)
	if err := rep.WriteText(&buf, report.DefaultWidth); err != nil {
		return nil, err
	}
	if err := rep.WriteHeaders(&buf, report.DefaultWidth); err != nil {
		return nil, err
	}

	fmt.Fprintf(&buf, "# table\n")
	table := output.Table{Headers: merged.Headers.Names(), Rows: merged.Rows}
	if err := output.WriteCSV(&buf, table); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can make further checks.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return result, err
	}
	return result, nil
}

// AssertGolden compares an existing result's snapshot against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)
	return nil
}
