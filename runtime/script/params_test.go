package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveParamsAppliesDefaults(t *testing.T) {
	resolved, err := resolveParams([]ParamSpec{{Name: "replicas", Default: 1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, resolved["replicas"])
}

func TestResolveParamsOverridesDefaultWhenProvided(t *testing.T) {
	resolved, err := resolveParams([]ParamSpec{{Name: "replicas", Default: 1}}, map[string]any{"replicas": 5})
	require.NoError(t, err)
	assert.Equal(t, 5, resolved["replicas"])
}

func TestResolveParamsIgnoresExtraneousValues(t *testing.T) {
	resolved, err := resolveParams([]ParamSpec{{Name: "env", Required: true}}, map[string]any{"env": "prod", "bogus": "x"})
	require.NoError(t, err)
	assert.NotContains(t, resolved, "bogus")
}

func TestResolveParamsErrorsOnMissingRequired(t *testing.T) {
	_, err := resolveParams([]ParamSpec{{Name: "env", Required: true}}, nil)
	require.Error(t, err)
}
