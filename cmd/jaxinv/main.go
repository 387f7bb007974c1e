// Command jaxinv traces, evaluates and inverts scalar programs.
package main

import (
	"fmt"
	"os"

	"github.com/gradient-ai/jax-gradient/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "jaxinv: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
