package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/pkgs/ferrors"
	"github.com/aledsdavies/fora/runtime/inventory"
)

// recognisedInventoryExt are the file extensions loadInventoryArg
// treats as a declarations file rather than a single-host URL, per
// spec.md §6 ("a file with a recognised script-extension").
var recognisedInventoryExt = map[string]bool{
	".yml":  true,
	".yaml": true,
}

// loadInventoryArgs loads and merges every inventory argument, then
// resolves and instantiates the full host set.
func loadInventoryArgs(args []string) ([]*types.Host, error) {
	docs := make([]*types.Inventory, 0, len(args))
	for _, arg := range args {
		doc, err := loadInventoryArg(arg)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	merged := inventory.Merge(docs...)
	resolved, err := inventory.Resolve(merged)
	if err != nil {
		return nil, err
	}
	return inventory.InstantiateAll(resolved)
}

// loadInventoryArg loads one inventory argument: a recognised-extension
// file is parsed as declarations, anything else is treated as a single
// URL string and synthesises a one-host ephemeral inventory, per
// spec.md §6.
func loadInventoryArg(arg string) (*types.Inventory, error) {
	if recognisedInventoryExt[strings.ToLower(filepath.Ext(arg))] {
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, ferrors.Load("reading inventory %q: %v", arg, err)
		}
		return inventory.ParseFile(arg, data)
	}
	return ephemeralInventory(arg), nil
}

// ephemeralInventory synthesises a one-host inventory from a bare
// connector URL ("ssh://…", "user@host", "local:"), naming the host
// after its target (the part before any "@" or ":" punctuation).
func ephemeralInventory(urlStr string) *types.Inventory {
	return &types.Inventory{
		Hosts: []types.HostDecl{{
			Name: ephemeralHostName(urlStr),
			URL:  urlStr,
		}},
	}
}

func ephemeralHostName(urlStr string) string {
	name := urlStr
	if i := strings.Index(name, "://"); i >= 0 {
		name = name[i+3:]
	}
	if i := strings.LastIndex(name, "@"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, ":"); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSuffix(name, "/")
	if name == "" {
		return urlStr
	}
	return name
}
