package inventory

import (
	"sort"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/pkgs/ferrors"
)

// Resolved holds everything derived from a set of host/group
// declarations: the dependency-checked topological order and each
// group's rank range, ready for host instantiation.
type Resolved struct {
	Groups  map[string]types.GroupDecl
	Hosts   map[string]types.HostDecl
	Order   []string
	RankMin map[string]int
	RankMax map[string]int
}

// Resolve validates an inventory's declarations, merges before/after
// edges symmetrically, rejects self-dependencies, and computes the
// topological order and rank ranges. Grounded on inventory_wrapper.py's
// preprocess_inventory: ensure_used_groups_are_declared ->
// merge_group_dependencies -> detect_self_dependencies ->
// calculate_topological_order.
func Resolve(inv *types.Inventory) (*Resolved, error) {
	groups := make(map[string]types.GroupDecl, len(inv.Groups))
	for _, g := range inv.Groups {
		// copy Before/After so merging never mutates the caller's decls
		cp := g
		cp.Before = append([]string(nil), g.Before...)
		cp.After = append([]string(nil), g.After...)
		groups[g.Name] = cp
	}
	if _, ok := groups[types.AllGroupName]; !ok {
		groups[types.AllGroupName] = types.GroupDecl{Name: types.AllGroupName}
	}

	hosts := make(map[string]types.HostDecl, len(inv.Hosts))
	for _, h := range inv.Hosts {
		hosts[h.Name] = h
	}

	for _, h := range inv.Hosts {
		for _, gname := range h.Groups {
			if _, ok := groups[gname]; !ok {
				return nil, ferrors.LoadAt(h.SourceFile, "unknown group %q used in declaration of host %q", gname, h.Name)
			}
		}
	}

	// "all" is an implicit ancestor of every other group: every group
	// gets a direct dependency on it (duplicates are dropped later).
	for n, g := range groups {
		if n == types.AllGroupName {
			continue
		}
		g.After = append(g.After, types.AllGroupName)
		groups[n] = g
	}

	mergeGroupDependencies(groups)

	for _, g := range groups {
		if contains(g.Before, g.Name) || contains(g.After, g.Name) {
			return nil, ferrors.Load("group %q must not depend on itself", g.Name)
		}
	}

	names := make([]string, 0, len(groups))
	for n := range groups {
		names = append(names, n)
	}
	sort.Strings(names)

	// GroupDecl.Before/After (post-merge) hold each group's successors/
	// predecessors respectively -- see mergeGroupDependencies. topologicalOrder's
	// rankSort wants the opposite framing (preds, then childs), so the two
	// are swapped here rather than in GroupDecl itself, since instantiate.go's
	// transitive-dependency walk relies on GroupDecl.After meaning "predecessors".
	graph := dependencyGraph{
		names:  names,
		before: make(map[string][]string, len(groups)),
		after:  make(map[string][]string, len(groups)),
	}
	for n, g := range groups {
		graph.before[n] = g.After
		graph.after[n] = g.Before
	}

	order, rankMin, rankMax, err := topologicalOrder(graph)
	if err != nil {
		return nil, err
	}

	return &Resolved{Groups: groups, Hosts: hosts, Order: order, RankMin: rankMin, RankMax: rankMax}, nil
}

// mergeGroupDependencies symmetrizes before/after: if "a" is in
// b.before then "b" is added to a.after, and vice versa, then
// recomputes before purely from the (deduplicated) after sets so the
// two views stay consistent.
func mergeGroupDependencies(groups map[string]types.GroupDecl) {
	for _, g := range groups {
		for _, before := range g.Before {
			target := groups[before]
			target.After = append(target.After, g.Name)
			groups[before] = target
		}
	}

	for n, g := range groups {
		g.Before = nil
		g.After = dedup(g.After)
		groups[n] = g
	}

	for n, g := range groups {
		for _, after := range g.After {
			target := groups[after]
			target.Before = append(target.Before, n)
			groups[after] = target
		}
	}

	for n, g := range groups {
		g.Before = dedup(g.Before)
		groups[n] = g
	}
}

func dedup(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// transitiveDependencies returns the closure of roots under edges(v),
// including the roots themselves.
func transitiveDependencies(roots []string, edges func(string) []string) map[string]bool {
	closure := make(map[string]bool, len(roots))
	queue := append([]string(nil), roots...)
	for _, r := range roots {
		closure[r] = true
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, n := range edges(v) {
			if !closure[n] {
				closure[n] = true
				queue = append(queue, n)
			}
		}
	}
	return closure
}
