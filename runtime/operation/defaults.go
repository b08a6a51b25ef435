// Package operation implements the probe->plan->apply skeleton every
// operation in runtime/ops is built on (spec C6): scoped remote
// defaults, diff accumulation, and the canonical OperationResult
// emission shared by every concrete operation.
package operation

import (
	"sync"

	"github.com/aledsdavies/fora/core/types"
)

// DefaultsStack is the per-script, single-threaded LIFO of
// types.RemoteSettings overlays. Each script gets its own stack (never
// a global): Push folds a candidate overlay onto the current effective
// settings and returns a Scope whose Pop restores the stack to exactly
// where it was before Push, release on every exit path including panics.
type DefaultsStack struct {
	mu    sync.Mutex // guards against accidental cross-goroutine reuse, not concurrent use
	stack []types.RemoteSettings
}

// NewDefaultsStack creates a stack seeded with the connection's base
// settings as the bottom frame.
func NewDefaultsStack(base types.RemoteSettings) *DefaultsStack {
	return &DefaultsStack{stack: []types.RemoteSettings{base}}
}

// Effective returns the current fold of every pushed overlay.
func (d *DefaultsStack) Effective() types.RemoteSettings {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stack[len(d.stack)-1]
}

// Scope is the handle returned by Push; Pop must be called exactly
// once, typically via defer, to restore the previous frame.
type Scope struct {
	stack *DefaultsStack
}

// Push overlays the given settings onto the current effective
// settings, pushes the result as the new top frame, and returns a
// Scope to pop it.
func (d *DefaultsStack) Push(overlay types.RemoteSettings) Scope {
	d.mu.Lock()
	defer d.mu.Unlock()
	top := d.stack[len(d.stack)-1]
	d.stack = append(d.stack, top.Overlay(overlay))
	return Scope{stack: d}
}

// Pop discards the top frame, restoring the prior effective settings.
// Safe to call on a zero Scope (no-op) so deferred callers don't need
// to special-case an error path that never pushed.
func (s Scope) Pop() {
	if s.stack == nil {
		return
	}
	s.stack.mu.Lock()
	defer s.stack.mu.Unlock()
	if len(s.stack.stack) > 1 {
		s.stack.stack = s.stack.stack[:len(s.stack.stack)-1]
	}
}
