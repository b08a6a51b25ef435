package inventory

import (
	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/pkgs/ferrors"
)

// InstantiateHost merges a host's transitive groups' variables, in
// topological order, into a fully resolved *types.Host. Grounded on
// inventory_wrapper.py's instanciate_host: walk the host's transitive
// group dependencies in topological order, overlaying each group's
// variables onto the running merge, and flag a variable as ambiguous
// when a later group overwrites a key some earlier, non-ancestor group
// also defined -- i.e. the two groups' rank ranges overlap, so nothing
// fixes their relative order.
func InstantiateHost(r *Resolved, hostName string) (*types.Host, error) {
	hostDecl, ok := r.Hosts[hostName]
	if !ok {
		return nil, ferrors.Load("unknown host %q", hostName)
	}

	closure := transitiveDependencies(hostDecl.Groups, func(g string) []string {
		return r.Groups[g].After
	})

	groupsInOrder := make([]string, 0, len(closure))
	for _, name := range r.Order {
		if closure[name] {
			groupsInOrder = append(groupsInOrder, name)
		}
	}

	vars := make(map[string]any)
	history := make(map[string][]string) // variable -> ordered list of defining group names
	type conflict struct {
		variable string
		definers []string
	}
	var conflicts []conflict

	for _, gname := range groupsInOrder {
		gdecl := r.Groups[gname]
		for key, val := range gdecl.Vars {
			if prevDefiners, redefined := history[key]; redefined {
				for _, prev := range prevDefiners {
					if r.RankMax[prev] >= r.RankMin[gname] {
						conflicts = append(conflicts, conflict{key, []string{prev, gname}})
					}
				}
			}
			vars[key] = val
			history[key] = append(history[key], gname)
		}
	}

	if len(conflicts) > 0 {
		c := conflicts[0]
		return nil, ferrors.Ambiguity(c.variable, c.definers)
	}

	for key, val := range hostDecl.Vars {
		vars[key] = val
		history[key] = append(history[key], hostDecl.Name)
	}

	return &types.Host{
		Name:                      hostDecl.Name,
		URL:                       hostDecl.URL,
		Groups:                    groupsInOrder,
		ConnectorOverride:         hostDecl.ConnectorOverride,
		Vars:                      vars,
		VariableDefinitionHistory: history,
	}, nil
}

// InstantiateAll instantiates every declared host.
func InstantiateAll(r *Resolved) ([]*types.Host, error) {
	hosts := make([]*types.Host, 0, len(r.Hosts))
	for _, hostDecl := range r.Hosts {
		h, err := InstantiateHost(r, hostDecl.Name)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}
