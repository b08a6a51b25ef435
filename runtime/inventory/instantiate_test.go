package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/pkgs/ferrors"
)

func TestInstantiateHostMergesGroupVarsInOrder(t *testing.T) {
	inv := &types.Inventory{
		Groups: []types.GroupDecl{
			{Name: "all", Vars: map[string]any{"env": "prod"}},
			{Name: "web", Vars: map[string]any{"port": "8080"}},
		},
		Hosts: []types.HostDecl{
			{Name: "web1", URL: "ssh://web1", Groups: []string{"web"}, Vars: map[string]any{"index": "1"}},
		},
	}

	r, err := Resolve(inv)
	require.NoError(t, err)

	host, err := InstantiateHost(r, "web1")
	require.NoError(t, err)
	assert.Equal(t, "prod", host.Vars["env"])
	assert.Equal(t, "8080", host.Vars["port"])
	assert.Equal(t, "1", host.Vars["index"])
}

func TestInstantiateHostDetectsAmbiguousAssignment(t *testing.T) {
	// web and db are both children of all with no ordering between
	// them, and both redefine "shared" -- this must be rejected.
	inv := &types.Inventory{
		Groups: []types.GroupDecl{
			{Name: "all"},
			{Name: "web", After: []string{"all"}, Vars: map[string]any{"shared": "web-value"}},
			{Name: "db", After: []string{"all"}, Vars: map[string]any{"shared": "db-value"}},
			{Name: "leaf", After: []string{"web", "db"}},
		},
		Hosts: []types.HostDecl{
			{Name: "h1", URL: "ssh://h1", Groups: []string{"leaf"}},
		},
	}

	r, err := Resolve(inv)
	require.NoError(t, err)

	_, err = InstantiateHost(r, "h1")
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.CodeAmbiguity))
}

func TestInstantiateHostMultiLevelOverrideMostSpecificWins(t *testing.T) {
	// all -> mid -> leaf, each redefining "x". Since this is a strict
	// chain (not a tie), the most specific group's value must win, and
	// "all" -- the universal ancestor -- must rank first.
	inv := &types.Inventory{
		Groups: []types.GroupDecl{
			{Name: "all", Vars: map[string]any{"x": 1}},
			{Name: "mid", After: []string{"all"}, Vars: map[string]any{"x": 2}},
			{Name: "leaf", After: []string{"mid"}, Vars: map[string]any{"x": 3}},
		},
		Hosts: []types.HostDecl{
			{Name: "h1", URL: "ssh://h1", Groups: []string{"leaf"}},
		},
	}

	r, err := Resolve(inv)
	require.NoError(t, err)
	require.Equal(t, "all", r.Order[0])

	host, err := InstantiateHost(r, "h1")
	require.NoError(t, err)
	assert.Equal(t, 3, host.Vars["x"])
	assert.Equal(t, []string{"all", "mid", "leaf"}, host.VariableDefinitionHistory["x"])
}

func TestResolveRejectsUnknownGroup(t *testing.T) {
	inv := &types.Inventory{
		Hosts: []types.HostDecl{{Name: "h1", URL: "ssh://h1", Groups: []string{"ghost"}}},
	}
	_, err := Resolve(inv)
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.CodeLoad))
}

func TestResolveRejectsSelfDependency(t *testing.T) {
	inv := &types.Inventory{
		Groups: []types.GroupDecl{{Name: "web", Before: []string{"web"}}},
	}
	_, err := Resolve(inv)
	require.Error(t, err)
}
