package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// withTempDir chdirs into a fresh temp dir for the duration of the
// test, since scaffold.Write always targets the current directory.
func withTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}

func TestInitCommandWritesMinimalLayout(t *testing.T) {
	dir := withTempDir(t)

	cmd := newInitCommand()
	cmd.SetArgs([]string{"minimal"})
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("init minimal: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "inventory.yaml")); err != nil {
		t.Fatalf("expected inventory.yaml to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "cmd/deploy/main.go")); err != nil {
		t.Fatalf("expected cmd/deploy/main.go to exist: %v", err)
	}
}

func TestInitCommandRejectsUnknownKind(t *testing.T) {
	withTempDir(t)

	cmd := newInitCommand()
	cmd.SetArgs([]string{"bogus"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for an unknown scaffold kind")
	}
}

func TestInitCommandRequiresExactlyOneArg(t *testing.T) {
	withTempDir(t)

	cmd := newInitCommand()
	cmd.SetArgs([]string{})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error when no kind is given")
	}
}

func TestRootCommandRegistersInitSubcommand(t *testing.T) {
	root := NewRootCommand(nil)
	sub, _, err := root.Find([]string{"init", "minimal"})
	if err != nil {
		t.Fatalf("Find(init): %v", err)
	}
	if sub.Name() != "init" {
		t.Fatalf("expected the init subcommand, got %q", sub.Name())
	}
}
