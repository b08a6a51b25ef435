package script

import (
	"context"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/runtime/connection"
	"github.com/aledsdavies/fora/runtime/connector"
	"github.com/aledsdavies/fora/runtime/operation"
	"github.com/aledsdavies/fora/runtime/ops"
)

// HostResult is one host's outcome from RunAll.
type HostResult struct {
	Host types.Host
	Err  error
}

// Connect resolves the connector a host should use. Implementations
// typically branch on host.ConnectorOverride/host.URL scheme
// ("ssh://", "local:") to produce a connector.SSHConnector or
// connector.LocalConnector.
type Connect func(h types.Host) (connector.Connector, error)

// RunAllOpts threads the CLI-wide flags and the per-operation
// reporting sink through to every host's ops.Context.
type RunAllOpts struct {
	DryRun  bool
	Diffing bool
	// Report, when set, receives every operation result as it
	// completes across every host (spec.md §7's per-operation output).
	Report func(*types.OperationResult)
}

// RunAll iterates hosts serially (spec.md §5: core multi-host
// parallelism is a non-goal), opening a fresh Connection and
// Connection-scoped DefaultsStack per host, then invoking the named
// entry script. A host whose script fails aborts that host only
// (spec.md §6 "fail-fast within a single host") — RunAll continues to
// the remaining hosts and reports every outcome.
func RunAll(ctx context.Context, hosts []types.Host, connect Connect, registry *Registry, entry string, params map[string]any, opts RunAllOpts) []HostResult {
	results := make([]HostResult, 0, len(hosts))
	for _, h := range hosts {
		results = append(results, HostResult{Host: h, Err: runHost(ctx, h, connect, registry, entry, params, opts)})
	}
	return results
}

func runHost(ctx context.Context, h types.Host, connect Connect, registry *Registry, entry string, params map[string]any, opts RunAllOpts) error {
	conn, err := connect(h)
	if err != nil {
		return err
	}

	c := connection.New(h.Name, conn)
	if err := c.Open(ctx); err != nil {
		return err
	}
	defer c.Close()

	opsCtx := &ops.Context{
		Conn:    c,
		Stack:   operation.NewDefaultsStack(c.BaseSettings()),
		DryRun:  opts.DryRun,
		Diffing: opts.Diffing,
		Report:  opts.Report,
	}

	return Run(opsCtx, registry, NewStack(), entry, params)
}
