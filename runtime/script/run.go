package script

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/runtime/ops"
)

// RunOpts controls one Run invocation.
type RunOpts struct {
	// AllowRecursion opts into recursion onto the same script Path,
	// otherwise rejected per spec.md §4.7 step 2.
	AllowRecursion bool
}

// RunError wraps a script body's returned error with the call stack
// active at the time it occurred, so the top-level printer can render
// a "Script stack" trace of deploy-script call sites rather than a
// bare Go error, per spec.md §4.7 step 5 and §6's propagation rules.
type RunError struct {
	Cause error
	Stack []Frame
}

func (e *RunError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v", e.Cause)
	for i := len(e.Stack) - 1; i >= 0; i-- {
		f := e.Stack[i]
		fmt.Fprintf(&b, "\n  called from %s:%d (script %q)", f.CallerFile, f.CallerLine, f.Script)
	}
	return b.String()
}

func (e *RunError) Unwrap() error { return e.Cause }

// Run looks up name in registry, resolves params against its
// declared ParamSpec, pushes a call-stack frame and a fresh defaults
// scope, invokes the script body, and on any error attaches the
// active call stack before returning it. Implements spec.md §4.7's
// six-step contract.
func Run(ctx *ops.Context, registry *Registry, stack *Stack, name string, params map[string]any) error {
	return run(ctx, registry, stack, name, params, RunOpts{})
}

// RunOpt is like Run but accepts RunOpts (e.g. AllowRecursion for a
// script that intentionally invokes itself).
func RunOpt(ctx *ops.Context, registry *Registry, stack *Stack, name string, params map[string]any, opts RunOpts) error {
	return run(ctx, registry, stack, name, params, opts)
}

func run(ctx *ops.Context, registry *Registry, stack *Stack, name string, params map[string]any, opts RunOpts) error {
	spec, ok := registry.Lookup(name)
	if !ok {
		return fmt.Errorf("script %q is not registered", name)
	}

	resolved, err := resolveParams(spec.Params, params)
	if err != nil {
		return err
	}

	_, callerFile, callerLine, _ := runtime.Caller(2)
	pop, err := stack.push(Frame{
		Script:     spec.Name,
		Path:       spec.Path,
		CallerFile: callerFile,
		CallerLine: callerLine,
	}, opts.AllowRecursion)
	if err != nil {
		return err
	}
	defer pop()

	scope := ctx.Stack.Push(types.RemoteSettings{})
	defer scope.Pop()

	inv := &Invocation{
		Ops:    ctx,
		Params: resolved,
		Stack:  stack,
		ID:     uuid.NewString(),
	}

	if err := spec.Func(inv); err != nil {
		var nested *RunError
		if errors.As(err, &nested) {
			// A nested Run already attached the deeper, failing stack.
			return err
		}
		return &RunError{Cause: err, Stack: stack.Frames()}
	}
	return nil
}
