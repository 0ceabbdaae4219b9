package main

import (
	"fmt"
	"os"

	"github.com/overql/overql/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		code := cli.GetExitCode(err)
		// Commands print their own diagnostics; avoid double-printing
		// for errors that already went through the formatter.
		if code == cli.ExitCommandError {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(code)
	}
}
