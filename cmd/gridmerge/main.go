// Command gridmerge merges drifting period snapshots into one table.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/gridmerge/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
