// Package inventory resolves declared hosts and groups into a
// topologically ordered, fully instantiated set of hosts: computing
// group rank ranges, detecting dependency cycles, merging variables in
// topological order and flagging ambiguous assignments (spec C5).
package inventory

import (
	"sort"

	"github.com/aledsdavies/fora/pkgs/ferrors"
)

// rankSort computes, for every vertex, the longest-path distance from
// any root reachable only through preds. Grounded on the original's
// rank_sort (src/fora/utils.py): find each unvisited component's root
// by walking preds until exhausted (detecting a cycle if that walk
// revisits a node), assign it rank 0, then breadth-first propagate
// rank+1 to every child, keeping the maximum rank ever proposed for a
// node so a node reachable by multiple paths gets the longest one.
func rankSort(vertices []string, preds, childs func(string) []string) (map[string]int, error) {
	ranks := make(map[string]int, len(vertices))
	for _, v := range vertices {
		ranks[v] = -1
	}

	hasUnranked := func() (string, bool) {
		for _, v := range vertices {
			if ranks[v] == -1 {
				return v, true
			}
		}
		return "", false
	}

	for {
		root, ok := hasUnranked()
		if !ok {
			break
		}

		visited := make(map[string]bool, len(vertices))
		visited[root] = true
		for {
			ps := preds(root)
			if len(ps) == 0 {
				break
			}
			next := ps[0]
			if visited[next] {
				cycle := make([]string, 0, len(visited))
				for _, v := range vertices {
					if visited[v] {
						cycle = append(cycle, v)
					}
				}
				return nil, ferrors.Cycle(cycle)
			}
			visited[next] = true
			root = next
		}

		ranks[root] = 0

		type pair struct {
			node, parent string
		}
		queue := make([]pair, 0)
		for _, c := range childs(root) {
			queue = append(queue, pair{c, root})
		}

		for len(queue) > 0 {
			n, p := queue[0].node, queue[0].parent
			queue = queue[1:]

			r := ranks[p] + 1
			if r > len(vertices) {
				return nil, ferrors.Cycle([]string{p})
			}
			if ranks[n] >= r {
				continue
			}
			ranks[n] = r
			for _, c := range childs(n) {
				queue = append(queue, pair{c, n})
			}
		}
	}

	return ranks, nil
}

// dependencyGraph is the minimal view rank-sorting and topological
// ordering need of the group dependency declarations.
type dependencyGraph struct {
	names  []string
	before map[string][]string
	after  map[string][]string
}

// topologicalOrder computes, from a group dependency graph, the
// ascending-RankMin ordering plus each group's [RankMin, RankMax] --
// the range of positions it could validly occupy in any topological
// order consistent with the declared dependencies.
func topologicalOrder(g dependencyGraph) (order []string, rankMin, rankMax map[string]int, err error) {
	ranksTop, err := rankSort(g.names, func(n string) []string { return g.before[n] }, func(n string) []string { return g.after[n] })
	if err != nil {
		return nil, nil, nil, err
	}
	ranksBottom, err := rankSort(g.names, func(n string) []string { return g.after[n] }, func(n string) []string { return g.before[n] })
	if err != nil {
		return nil, nil, nil, err
	}

	maxBottom := 0
	for _, v := range ranksBottom {
		if v > maxBottom {
			maxBottom = v
		}
	}

	rankMin = ranksTop
	rankMax = make(map[string]int, len(ranksBottom))
	for k, v := range ranksBottom {
		rankMax[k] = maxBottom - v
	}

	order = append(order, g.names...)
	sort.SliceStable(order, func(i, j int) bool {
		return rankMin[order[i]] < rankMin[order[j]]
	})

	return order, rankMin, rankMax, nil
}
