package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const historyCSV = `Year,Month,Day,Rank,RMax,Site,Country
1993,6,1,1,59.7,Los Alamos,
1993,6,1,2,52.3,Minneapolis,
1993,11,1,1,124.5,Tsukuba,Japan
1994,6,1,1,143.4,,USA
`

func TestMergeDirectory(t *testing.T) {
	dir := writeHistory(t)
	out := filepath.Join(t.TempDir(), "history.csv")

	cmd := NewMergeCommand(newTestRootOptions(t, "text"))
	stdout, _, err := execute(cmd, "--dir", dir, "-o", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, historyCSV, string(data))

	assert.Equal(t, `1993/6:
  Renamed headers: Rmax to RMax
  New headers: Rank, RMax, Site
1993/11:
  New headers: Country
1994/6:
  Dropped headers: Site
Merged 4 rows from 3 period(s) into `+out+` (7 headers)
`, stdout)
}

func TestMergeToStdoutSendsReportToStderr(t *testing.T) {
	dir := writeHistory(t)

	cmd := NewMergeCommand(newTestRootOptions(t, "text"))
	stdout, stderr, err := execute(cmd, "--dir", dir, "-o", "-")
	require.NoError(t, err)

	assert.Equal(t, historyCSV, stdout)
	assert.Contains(t, stderr, "Renamed headers: Rmax to RMax")
}

func TestMergeManifest(t *testing.T) {
	dir := writeHistory(t)
	manifestPath := writeFile(t, dir, "top500.yaml", `
periods:
  - {year: 1993, month: 6, file: TOP500_199306.csv}
  - {year: 1994, month: 6, file: TOP500_199406.csv}
aliases:
  Country: Nation
output: merged.csv
`)

	cmd := NewMergeCommand(newTestRootOptions(t, "text"))
	_, _, err := execute(cmd, manifestPath)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "merged.csv"))
	require.NoError(t, err)
	assert.Equal(t, `Year,Month,Day,Rank,RMax,Site,Nation
1993,6,1,1,59.7,Los Alamos,
1993,6,1,2,52.3,Minneapolis,
1994,6,1,1,143.4,,USA
`, string(data))
}

func TestMergeAliasFlagsAndNoDefaults(t *testing.T) {
	dir := writeHistory(t)

	cmd := NewMergeCommand(newTestRootOptions(t, "text"))
	stdout, _, err := execute(cmd, "--dir", dir, "-o", "-", "--no-default-aliases", "--alias", "Site=Location")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Year,Month,Day,Rank,Rmax,Location,RMax,Country\n")
}

func TestMergeInvalidAliasFlag(t *testing.T) {
	dir := writeHistory(t)

	cmd := NewMergeCommand(newTestRootOptions(t, "text"))
	stdout, _, err := execute(cmd, "--dir", dir, "--alias", "Site")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeInvalidFlag)
	assert.Contains(t, stdout, "want RAW=CANONICAL")
}

func TestMergeAliasChainRejected(t *testing.T) {
	dir := writeHistory(t)

	cmd := NewMergeCommand(newTestRootOptions(t, "text"))
	_, _, err := execute(cmd, "--dir", dir, "-o", "-", "--alias", "RMax=Rmax_final")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeInvalidFlag)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMergeSkippedPeriod(t *testing.T) {
	dir := writeHistory(t)
	writeFile(t, dir, "TOP500_199411.csv", "Rank,RMax\n\"1,2\n")
	out := filepath.Join(t.TempDir(), "history.csv")

	cmd := NewMergeCommand(newTestRootOptions(t, "text"))
	stdout, _, err := execute(cmd, "--dir", dir, "-o", out)
	require.NoError(t, err, "skipped periods do not fail the merge")

	assert.Contains(t, stdout, "Error processing TOP500_199411.csv: ")
	assert.Contains(t, stdout, "Skipped 1 period(s)")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, historyCSV, string(data))
}

func TestMergeStrict(t *testing.T) {
	dir := writeHistory(t)
	writeFile(t, dir, "TOP500_199411.csv", "Rank,RMax\n\"1,2\n")

	cmd := NewMergeCommand(newTestRootOptions(t, "text"))
	_, _, err := execute(cmd, "--dir", dir, "-o", filepath.Join(t.TempDir(), "h.csv"), "--strict")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 period(s) skipped")
}

func TestMergeNoSources(t *testing.T) {
	cmd := NewMergeCommand(newTestRootOptions(t, "text"))
	stdout, _, err := execute(cmd, "--dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNoSources)
	assert.Contains(t, stdout, "no period files found")
}

func TestMergeWithoutManifestOrDir(t *testing.T) {
	cmd := NewMergeCommand(newTestRootOptions(t, "text"))
	_, _, err := execute(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeManifest)
}

func TestMergeUnsupportedOutput(t *testing.T) {
	dir := writeHistory(t)

	cmd := NewMergeCommand(newTestRootOptions(t, "text"))
	_, _, err := execute(cmd, "--dir", dir, "-o", "history.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeInvalidFlag)
}

func TestMergeJSONWithDatabase(t *testing.T) {
	dir := writeHistory(t)
	db := filepath.Join(t.TempDir(), "runs.db")
	out := filepath.Join(t.TempDir(), "history.xlsx")

	cmd := NewMergeCommand(newTestRootOptions(t, "json"))
	stdout, _, err := execute(cmd, "--dir", dir, "-o", out, "--db", db)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   MergeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 4, resp.Data.Rows)
	assert.Equal(t, 3, resp.Data.Periods)
	assert.NotEmpty(t, resp.Data.RunID)
	require.NotNil(t, resp.Data.Report)
	assert.Len(t, resp.Data.Report.Diagnostics, 3)

	_, err = os.Stat(out)
	assert.NoError(t, err)
	_, err = os.Stat(db)
	assert.NoError(t, err)
}

func TestMergeVerboseDumpsManifest(t *testing.T) {
	dir := writeHistory(t)
	opts := newTestRootOptions(t, "text")
	opts.Verbose = true

	cmd := NewMergeCommand(opts)
	_, stderr, err := execute(cmd, "--dir", dir, "-o", "-")
	require.NoError(t, err)

	assert.Contains(t, stderr, "level=DEBUG msg=manifest")
	assert.Contains(t, stderr, "Periods by status: map[merged:3]")
}

func TestParseAliases(t *testing.T) {
	got, err := parseAliases([]string{"Rmax=RMax", "Proc=Processor Speed (MHz)"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Rmax": "RMax", "Proc": "Processor Speed (MHz)"}, got)

	for _, bad := range []string{"", "=x", "x=", "nothing"} {
		_, err := parseAliases([]string{bad})
		assert.Error(t, err, bad)
	}
}
