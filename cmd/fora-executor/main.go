// Command fora-executor is the remote-side program (C2): a thin
// wrapper around runtime/executor.Serve, cross-compiled for each
// supported target triple and embedded into the controller binary by
// `make embed-executors` (see runtime/connector/embedded/README.md).
// It speaks the tunnel protocol on stdin/stdout and logs to stderr
// only.
package main

import (
	"fmt"
	"os"

	"github.com/aledsdavies/fora/runtime/executor"
)

func main() {
	if err := executor.New(os.Stdin, os.Stdout).Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "fora-executor: %v\n", err)
		os.Exit(1)
	}
}
