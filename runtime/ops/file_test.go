package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCreatesMissing(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)

	res, err := c.File("/etc/app.conf", NewFileOpts())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	_, exists := h.files["/etc/app.conf"]
	assert.True(t, exists)
}

func TestFileIdempotentOnSecondCall(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)

	_, err := c.File("/etc/app.conf", NewFileOpts())
	require.NoError(t, err)

	res, err := c.File("/etc/app.conf", NewFileOpts())
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestFileFailsWhenPathIsADirectory(t *testing.T) {
	h := newFakeHost()
	h.files["/etc/app.conf"] = &fakeFile{isDir: true, mode: "755"}
	c := newTestContext(t, h)

	_, err := c.File("/etc/app.conf", NewFileOpts())
	require.Error(t, err)
}

func TestFileRemovesWhenAbsent(t *testing.T) {
	h := newFakeHost()
	h.files["/etc/app.conf"] = &fakeFile{mode: "644", owner: "deploy", group: "deploy"}
	c := newTestContext(t, h)

	res, err := c.File("/etc/app.conf", FileOpts{Present: false})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	_, exists := h.files["/etc/app.conf"]
	assert.False(t, exists)
}

func TestFileAppliesOwnerAndGroup(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)
	owner, group := "www-data", "www-data"

	res, err := c.File("/etc/app.conf", FileOpts{Present: true, Owner: &owner, Group: &group})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "www-data", h.files["/etc/app.conf"].owner)
	assert.Equal(t, "www-data", h.files["/etc/app.conf"].group)
}
