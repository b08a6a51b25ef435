// Command fora is the default controller binary: fora's cli package as
// a thin main, plus the hidden "--tunnel-executor" mode LocalConnector
// re-invokes the controller's own binary with (see
// runtime/connector/local.go). A deployment with its own deploy
// scripts registers them against a *script.Registry and builds its own
// main importing cli.Execute instead of this one -- Go has no
// dynamic-import equivalent to the original fora's per-host Python
// module loading, so the registry takes that role.
package main

import (
	"os"

	"github.com/aledsdavies/fora/cli"
	"github.com/aledsdavies/fora/runtime/executor"
	"github.com/aledsdavies/fora/runtime/script"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--tunnel-executor" {
		if err := executor.New(os.Stdin, os.Stdout).Serve(); err != nil {
			os.Exit(1)
		}
		return
	}

	os.Exit(cli.Execute(script.NewRegistry()))
}
