package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/fora/core/types"
)

func TestTemplateContentRendersHostVars(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)
	host := &types.Host{Name: "web1", Vars: map[string]any{"port": "8080"}}

	res, err := c.TemplateContent("listen {{.port}};\n", "/etc/app.conf", host, TemplateOpts{})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "listen 8080;\n", string(h.files["/etc/app.conf"].content))
}

func TestTemplateContentContextShadowsHostVars(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)
	host := &types.Host{Name: "web1", Vars: map[string]any{"port": "8080"}}

	res, err := c.TemplateContent("listen {{.port}};\n", "/etc/app.conf", host, TemplateOpts{Context: map[string]any{"port": "9090"}})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "listen 9090;\n", string(h.files["/etc/app.conf"].content))
}

func TestTemplateContentExposesHostName(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)
	host := &types.Host{Name: "web1", Vars: map[string]any{}}

	_, err := c.TemplateContent("# {{.host.Name}}\n", "/etc/app.conf", host, TemplateOpts{})
	require.NoError(t, err)
	assert.Equal(t, "# web1\n", string(h.files["/etc/app.conf"].content))
}

func TestTemplateContentFailsOnMissingKey(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)
	host := &types.Host{Name: "web1", Vars: map[string]any{}}

	_, err := c.TemplateContent("{{.undefined}}\n", "/etc/app.conf", host, TemplateOpts{})
	require.Error(t, err)
}

func TestTemplateAppendsBasenameOnTrailingSlashDest(t *testing.T) {
	h := newFakeHost()
	c := newTestContext(t, h)
	host := &types.Host{Name: "web1", Vars: map[string]any{}}

	dir := t.TempDir()
	src := filepath.Join(dir, "app.conf.tmpl")
	require.NoError(t, os.WriteFile(src, []byte("static\n"), 0o644))

	res, err := c.Template(src, "/etc/conf.d/", host, TemplateOpts{})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	_, exists := h.files["/etc/conf.d/app.conf.tmpl"]
	assert.True(t, exists)
}
