// Command criteria compiles entity schemas and lowers criteria queries.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/criteria/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
