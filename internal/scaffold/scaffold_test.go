package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRejectsUnknownKind(t *testing.T) {
	err := Write(t.TempDir(), Kind("nonexistent"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown layout")
}

func TestWriteMinimalCreatesExpectedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(dir, Minimal))

	assertFileExists(t, dir, "inventory.yaml")
	assertFileExists(t, dir, "scripts/deploy.go")
	assertFileExists(t, dir, "cmd/deploy/main.go")
}

func TestWriteFlatCreatesExpectedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(dir, Flat))

	for _, p := range []string{
		"inventory.yaml",
		"files/staticfile",
		"scripts/tasks_example.go",
		"scripts/params_example.go",
		"scripts/deploy.go",
		"cmd/deploy/main.go",
	} {
		assertFileExists(t, dir, p)
	}
}

func TestWriteDotfilesOmitsInventory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(dir, Dotfiles))

	for _, p := range []string{
		"files/zshrc",
		"files/kitty.conf",
		"files/init.lua",
		"scripts/deploy.go",
		"cmd/deploy/main.go",
	} {
		assertFileExists(t, dir, p)
	}

	_, err := os.Stat(filepath.Join(dir, "inventory.yaml"))
	assert.True(t, os.IsNotExist(err), "dotfiles layout should not write an inventory.yaml")
}

func TestWriteModularCreatesExpectedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(dir, Modular))

	for _, p := range []string{
		"inventory.yaml",
		"scripts/tasks_install.go",
		"scripts/tasks_add_site.go",
		"scripts/deploy.go",
		"cmd/deploy/main.go",
	} {
		assertFileExists(t, dir, p)
	}
}

func TestWriteStagingProdCreatesExpectedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(dir, StagingProd))

	for _, p := range []string{
		"inventories/staging.yaml",
		"inventories/prod.yaml",
		"scripts/tasks_install.go",
		"scripts/tasks_add_site.go",
		"scripts/deploy.go",
		"cmd/deploy/main.go",
	} {
		assertFileExists(t, dir, p)
	}

	// staging_prod has no single inventory.yaml -- it uses inventories/.
	_, err := os.Stat(filepath.Join(dir, "inventory.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteOverwritesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inventory.yaml"), []byte("stale"), 0o644))

	require.NoError(t, Write(dir, Minimal))

	content, err := os.ReadFile(filepath.Join(dir, "inventory.yaml"))
	require.NoError(t, err)
	assert.NotEqual(t, "stale", string(content))
}

func assertFileExists(t *testing.T, dir, path string) {
	t.Helper()
	info, err := os.Stat(filepath.Join(dir, path))
	require.NoErrorf(t, err, "expected %s to exist", path)
	assert.False(t, info.IsDir())
}
