// Command pulsenet simulates pulse propagation networks.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/pulsenet/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pulsenet:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
