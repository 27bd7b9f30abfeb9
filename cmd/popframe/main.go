// Command popframe runs the frame-pop conformance harness.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/popframe/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		}
	}
	os.Exit(cli.GetExitCode(err))
}
