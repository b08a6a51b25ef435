// Package script implements C8: the script runner. Deploy scripts are
// ordinary Go functions registered in a Registry (the database/sql
// driver pattern), invoked through Run with a parameter mapping and a
// per-run call stack that records caller sites for sub-script
// invocations, matching the behavioural contract of spec.md §4.7.
package script

import (
	"fmt"
	"sync"

	"github.com/aledsdavies/fora/runtime/ops"
)

// Invocation is the handle a registered script function receives.
type Invocation struct {
	Ops    *ops.Context
	Params map[string]any
	Stack  *Stack
	// ID uniquely identifies this invocation, replacing the Python
	// original's uuid4()-suffixed dynamic module names.
	ID string
}

// Func is a deploy script body.
type Func func(inv *Invocation) error

// Spec registers one script: its display name, a stable identity used
// for recursion detection (the script's source file, or any other
// caller-supplied identifier unique per script), its accepted
// parameters, and its body.
type Spec struct {
	Name   string
	Path   string
	Params []ParamSpec
	Func   Func
}

// Registry holds registered scripts, looked up by name at invocation
// time. Mirrors core/decorator.Registry's registration shape, adapted
// from decorator paths to script names.
type Registry struct {
	mu      sync.RWMutex
	scripts map[string]Spec
}

// NewRegistry creates an empty script registry.
func NewRegistry() *Registry {
	return &Registry{scripts: make(map[string]Spec)}
}

// Register adds a script under name. Registering the same name twice
// is a programmer error.
func (r *Registry) Register(name string, spec Spec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.scripts[name]; exists {
		return fmt.Errorf("script %q already registered", name)
	}
	spec.Name = name
	if spec.Path == "" {
		spec.Path = name
	}
	r.scripts[name] = spec
	return nil
}

// Lookup retrieves a script by name.
func (r *Registry) Lookup(name string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scripts[name]
	return s, ok
}

// global is the package-level registry, for the common case of a
// single process-wide set of deploy scripts (database/sql pattern).
var global = NewRegistry()

// Register adds a script to the global registry.
func Register(name string, spec Spec) error {
	return global.Register(name, spec)
}

// Global returns the global script registry, for main packages that
// rely on scripts self-registering via init() (the database/sql
// pattern) rather than building their own Registry by hand.
func Global() *Registry {
	return global
}
