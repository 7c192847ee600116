// Command narrate evaluates rule templates against tabular data.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/narrate/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
