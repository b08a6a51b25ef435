package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoClonesMissing(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)

	res, err := c.Repo("https://example.com/app.git", "/srv/app", NewRepoOpts())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	require.Contains(t, h.files, "/srv/app")
	assert.Equal(t, "https://example.com/app.git", h.gitRemotes["/srv/app"])
}

func TestRepoIdempotentWhenRemoteUnchanged(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)

	_, err := c.Repo("https://example.com/app.git", "/srv/app", NewRepoOpts())
	require.NoError(t, err)

	res, err := c.Repo("https://example.com/app.git", "/srv/app", NewRepoOpts())
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestRepoSkipsUpdateWhenUpdateDisabled(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)

	_, err := c.Repo("https://example.com/app.git", "/srv/app", NewRepoOpts())
	require.NoError(t, err)

	h.gitCommits["https://example.com/app.git"] = "aNewerCommitShaValue00000000000000000"

	res, err := c.Repo("https://example.com/app.git", "/srv/app", RepoOpts{Update: false})
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestRepoRefusesToUpdateWithDifferentRemote(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)

	_, err := c.Repo("https://example.com/app.git", "/srv/app", NewRepoOpts())
	require.NoError(t, err)

	h.gitCommits["https://example.com/other.git"] = "differentcommit000000000000000000000"

	_, err = c.Repo("https://example.com/other.git", "/srv/app", NewRepoOpts())
	require.Error(t, err)
}

func TestRepoFailsWhenPathExistsWithoutGitDir(t *testing.T) {
	h := newFakeHost()
	h.files["/srv/app"] = &fakeFile{isDir: true, mode: "755"}
	c := newTestContext(t, h)

	_, err := c.Repo("https://example.com/app.git", "/srv/app", NewRepoOpts())
	require.Error(t, err)
}
