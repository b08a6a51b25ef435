package types

// State is a map from observable-aspect name (e.g. "exists", "mode",
// "owner", "sha512") to its probed or desired value. Both the initial
// and final state of a flat operation must declare the same key set.
type State map[string]any

// Equal reports whether two states have the same keys and values.
// Values are compared with a type switch covering the few concrete
// types operations actually store (bool, string, uint64, []byte,
// []string) so byte slices compare by content, not identity.
func (s State) Equal(other State) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		ov, ok := other[k]
		if !ok || !valueEqual(v, ov) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	switch av := a.(type) {
	case []byte:
		bv, ok := b.([]byte)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case []string:
		bv, ok := b.([]string)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// DiffEntry is one content change emitted by an operation when diff
// output is enabled: (path, old content or nil, new content or nil).
type DiffEntry struct {
	Path string
	Old  []byte // nil if the path didn't exist before
	New  []byte // nil if the path doesn't exist after
}

// OperationResult is the outcome of running one operation.
type OperationResult struct {
	Kind           string
	Label          string
	Description    string
	Success        bool
	Changed        bool
	Initial        State
	Final          State
	Diffs          []DiffEntry
	FailureMessage string

	// HasNested is true for operations that aggregate children (e.g.
	// upload_dir) instead of carrying their own flat state.
	HasNested bool
	Nested    map[string]*OperationResult
}
