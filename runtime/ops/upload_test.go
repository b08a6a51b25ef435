package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadContentCreatesMissing(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)

	res, err := c.UploadContent([]byte("hello\n"), "/etc/greeting", UploadOpts{})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "hello\n", string(h.files["/etc/greeting"].content))
}

func TestUploadContentIdempotentOnSameContent(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)

	_, err := c.UploadContent([]byte("hello\n"), "/etc/greeting", UploadOpts{})
	require.NoError(t, err)

	res, err := c.UploadContent([]byte("hello\n"), "/etc/greeting", UploadOpts{})
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestUploadContentReuploadsOnContentChange(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)

	_, err := c.UploadContent([]byte("hello\n"), "/etc/greeting", UploadOpts{})
	require.NoError(t, err)

	res, err := c.UploadContent([]byte("goodbye\n"), "/etc/greeting", UploadOpts{})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "goodbye\n", string(h.files["/etc/greeting"].content))
}

func TestUploadContentChmodOnlyWhenContentUnchanged(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)
	mode := "600"

	_, err := c.UploadContent([]byte("hello\n"), "/etc/greeting", UploadOpts{})
	require.NoError(t, err)

	res, err := c.UploadContent([]byte("hello\n"), "/etc/greeting", UploadOpts{Mode: &mode})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "600", h.files["/etc/greeting"].mode)
	assert.Equal(t, "hello\n", string(h.files["/etc/greeting"].content))
}

func TestUploadReadsLocalFileAndAppendsBasenameOnTrailingSlash(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)

	dir := t.TempDir()
	src := filepath.Join(dir, "app.bin")
	require.NoError(t, os.WriteFile(src, []byte("binary-data"), 0o644))

	res, err := c.Upload(src, "/opt/bin/", UploadOpts{})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "binary-data", string(h.files["/opt/bin/app.bin"].content))
}

func TestUploadFailsOnMissingLocalFile(t *testing.T) {
	c := newTestContext(t, newFakeHost())

	_, err := c.Upload("/nonexistent/local/file", "/opt/bin/file", UploadOpts{})
	require.Error(t, err)
}
