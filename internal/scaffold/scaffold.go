// Package scaffold implements `fora init`: writing a starter directory
// tree of inventory YAML and an example registered script into the
// current directory, per spec.md §6's "Scaffolding" paragraph. This is
// a convenience only, not part of the core contract -- none of the
// resolver/operation/connection tests depend on it.
//
// Go has no equivalent to the original's dynamically loaded per-host
// Python deploy modules (see runtime/script's registry-based
// replacement), so each layout also writes a cmd/deploy/main.go
// wiring the generated scripts package into fora's CLI.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
)

// Kind names one of the five starter layouts, mirroring the original
// example_deploys.py's init_structure_* functions.
type Kind string

const (
	Minimal     Kind = "minimal"
	Flat        Kind = "flat"
	Dotfiles    Kind = "dotfiles"
	Modular     Kind = "modular"
	StagingProd Kind = "staging_prod"
)

// Kinds lists every valid layout, in the order `fora init --help`
// should present them.
var Kinds = []Kind{Minimal, Flat, Dotfiles, Modular, StagingProd}

func (k Kind) valid() bool {
	for _, candidate := range Kinds {
		if k == candidate {
			return true
		}
	}
	return false
}

var writers = map[Kind]func(string) error{
	Minimal:     writeMinimal,
	Flat:        writeFlat,
	Dotfiles:    writeDotfiles,
	Modular:     writeModular,
	StagingProd: writeStagingProd,
}

// Write creates kind's starter directory tree rooted at dir (normally
// "."). Existing files at the destination paths are overwritten;
// callers that want a non-empty-directory confirmation prompt (as the
// original does) are expected to implement it in the CLI layer, where
// stdin/stdout are available.
func Write(dir string, kind Kind) error {
	if !kind.valid() {
		return fmt.Errorf("scaffold: unknown layout %q", kind)
	}
	return writers[kind](dir)
}

func mkdirs(dir string, paths ...string) error {
	for _, p := range paths {
		if err := os.MkdirAll(filepath.Join(dir, p), 0o755); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(dir, path, content string) error {
	full := filepath.Join(dir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, []byte(content), 0o644)
}
