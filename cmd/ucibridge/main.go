// Command ucibridge drives a UCI chess engine as an analysis service.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/ucibridge/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		var exitErr *cli.ExitError
		// Commands that already printed their error return an ExitError.
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	os.Exit(cli.GetExitCode(err))
}
