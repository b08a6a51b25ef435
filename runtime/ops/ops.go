// Package ops implements C7: the concrete operation library (directory,
// file, link, upload, upload_dir, template, line, package, service,
// user, group, repo) that user deploy scripts call. Each operation is a
// plain function taking a *Context plus its named parameters, grounded
// on the probe -> plan -> apply skeleton of runtime/operation.Op and
// the remote primitives of runtime/connection.Connection.
package ops

import (
	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/runtime/connection"
	"github.com/aledsdavies/fora/runtime/operation"
)

// Context is the handle every operation function receives: the open
// connection to the current host, its script-scoped defaults stack,
// and the run-wide dry-run/diff flags threaded from the CLI.
type Context struct {
	Conn    *connection.Connection
	Stack   *operation.DefaultsStack
	DryRun  bool
	Diffing bool

	// Report, when set, is invoked with every operation's result as
	// soon as it is computed, letting the CLI render the per-operation
	// success/failure line spec.md §7 describes without each operation
	// function needing to know about output formatting.
	Report func(*types.OperationResult)
}

// withDefaults validates overlay's octal fields and pushes it onto the
// stack, returning the merged effective settings and a Scope the
// caller must Pop (typically via defer) to restore the prior frame.
func (c *Context) withDefaults(overlay types.RemoteSettings) (types.RemoteSettings, operation.Scope, error) {
	if err := overlay.Validate(); err != nil {
		return types.RemoteSettings{}, operation.Scope{}, err
	}
	scope := c.Stack.Push(overlay)
	return c.Stack.Effective(), scope, nil
}

func (c *Context) newOp(kind string) *operation.Op {
	return operation.New(kind, c.DryRun, c.Diffing)
}

// deref returns the empty interface nil when s is nil, else the
// dereferenced string, matching the State convention of representing
// "no desired value" as untyped nil rather than a typed *string (see
// runtime/operation/op_test.go).
func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func strOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
