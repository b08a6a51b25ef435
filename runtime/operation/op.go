package operation

import (
	"runtime"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/pkgs/ferrors"
)

// Op is the hidden handle every concrete operation (runtime/ops)
// receives alongside its named parameters. It accumulates the
// label/description, initial/final state, diffs, and the eventual
// success/failure outcome; operations never construct an
// OperationResult directly.
type Op struct {
	kind        string
	label       string
	description string
	dryRun      bool
	diffEnabled bool

	initial State
	final   State
	diffs   []types.DiffEntry

	ignoreNilKeys map[string]bool
}

// State is re-exported here so ops code reads naturally as op.State{...}
// without a second import; it is exactly types.State underneath.
type State = types.State

// New creates an Op for one invocation of the named operation kind.
func New(kind string, dryRun, diffEnabled bool) *Op {
	return &Op{kind: kind, dryRun: dryRun, diffEnabled: diffEnabled}
}

// Desc records the "early" status line describing the operation's
// target, shown to the user before probing begins.
func (o *Op) Desc(label, description string) {
	o.label = label
	o.description = description
}

// FinalState declares the desired observable aspects.
func (o *Op) FinalState(s State) { o.final = s }

// InitialState records the probed current observable aspects.
func (o *Op) InitialState(s State) { o.initial = s }

// DryRun reports whether apply-phase mutations must be skipped.
func (o *Op) DryRun() bool { return o.dryRun }

// Changed reports whether a single aspect differs between initial and
// final state, letting the apply phase skip redundant mutations.
func (o *Op) Changed(key string) bool {
	iv, iok := o.initial[key]
	fv, fok := o.final[key]
	if iok != fok {
		return true
	}
	if !iok {
		return false
	}
	return !State{key: iv}.Equal(State{key: fv})
}

// Unchanged compares initial and final state. When ignoreNil is true
// (the default per spec §4.5), keys whose final value is nil are
// excluded -- needed for operations with optional desired aspects
// (e.g. service's state vs enabled).
func (o *Op) Unchanged(ignoreNil bool) bool {
	if !ignoreNil {
		return o.initial.Equal(o.final)
	}
	filtered := make(State, len(o.final))
	for k, v := range o.final {
		if v != nil {
			filtered[k] = v
		}
	}
	relevant := make(State, len(filtered))
	for k := range filtered {
		if iv, ok := o.initial[k]; ok {
			relevant[k] = iv
		}
	}
	return relevant.Equal(filtered)
}

// Diff records a content change for diff-output rendering. A no-op
// when diff output is disabled, so operations can call it
// unconditionally.
func (o *Op) Diff(path string, old, new []byte) {
	if !o.diffEnabled {
		return
	}
	o.diffs = append(o.diffs, types.DiffEntry{Path: path, Old: old, New: new})
}

// Success finalizes a successful result: changed = (initial != final).
func (o *Op) Success() *types.OperationResult {
	return &types.OperationResult{
		Kind:        o.kind,
		Label:       o.label,
		Description: o.description,
		Success:     true,
		Changed:     !o.initial.Equal(o.final),
		Initial:     o.initial,
		Final:       o.final,
		Diffs:       o.diffs,
	}
}

// Failure finalizes a failed result carrying msg. It returns no error;
// turning a failure into an error whose caller site is the
// operation-calling script line is FailWith's job.
func (o *Op) Failure(msg string) *types.OperationResult {
	return &types.OperationResult{
		Kind:           o.kind,
		Label:          o.label,
		Description:    o.description,
		Success:        false,
		FailureMessage: msg,
		Initial:        o.initial,
		Final:          o.final,
		Diffs:          o.diffs,
	}
}

// FailWith wraps err as a *ferrors.ForaError carrying the caller site
// of the script line that invoked the operation, skipping `skip`
// additional stack frames of framework code above that call.
func FailWith(err error, skip int) error {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return err
	}
	return ferrors.Operation(err.Error(), ferrors.CallerSite{File: file, Line: line})
}
