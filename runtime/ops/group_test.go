package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupCreatesMissing(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)
	gid := 4001

	res, err := c.Group("deploy", GroupOpts{Present: true, GID: &gid})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	require.Contains(t, h.groups, "deploy")
	assert.EqualValues(t, 4001, h.groups["deploy"].GID)
}

func TestGroupIdempotentOnSecondCall(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)
	gid := 4001

	_, err := c.Group("deploy", GroupOpts{Present: true, GID: &gid})
	require.NoError(t, err)

	res, err := c.Group("deploy", GroupOpts{Present: true, GID: &gid})
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestGroupModifiesGID(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)
	gid := 4001

	_, err := c.Group("deploy", GroupOpts{Present: true, GID: &gid})
	require.NoError(t, err)

	newGID := 4002
	res, err := c.Group("deploy", GroupOpts{Present: true, GID: &newGID})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.EqualValues(t, 4002, h.groups["deploy"].GID)
}

func TestGroupRemovesWhenAbsent(t *testing.T) {
	h := newFakeHost()
	gid := 4001
	c := newTestContext(t, h)

	_, err := c.Group("deploy", GroupOpts{Present: true, GID: &gid})
	require.NoError(t, err)

	res, err := c.Group("deploy", GroupOpts{Present: false})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.NotContains(t, h.groups, "deploy")
}
