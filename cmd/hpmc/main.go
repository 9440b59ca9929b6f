// Command hpmc compiles HPM-DL programs.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/hpmdl/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// Subcommands report their own errors; flag and argument errors
		// from cobra are not ExitErrors and still need printing.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
