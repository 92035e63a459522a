package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// newTestRootOptions returns options that ignore any .env file and any
// GRIDMERGE_ variables set in the test environment.
func newTestRootOptions(t *testing.T, format string) *RootOptions {
	t.Helper()
	for _, name := range []string{
		"GRIDMERGE_DB", "GRIDMERGE_OUTPUT", "GRIDMERGE_ADDR",
		"GRIDMERGE_LOG_LEVEL", "GRIDMERGE_ENCODING", "GRIDMERGE_WRAP_WIDTH",
	} {
		t.Setenv(name, "")
	}
	return &RootOptions{Format: format}
}

// writeFile writes content under dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// writeHistory creates three periods of TOP500-style lists with a rename,
// an added column and a dropped column.
func writeHistory(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "TOP500_199306.csv", "Rank,Rmax,Site\n1,59.7,Los Alamos\n2,52.3,Minneapolis\n")
	writeFile(t, dir, "TOP500_199311.csv", "Rank,RMax,Site,Country\n1,124.5,Tsukuba,Japan\n")
	writeFile(t, dir, "TOP500_199406.csv", "Rank,RMax,Country\n1,143.4,USA\n")
	return dir
}

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
