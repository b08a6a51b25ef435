package inventory

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/pkgs/ferrors"
)

// declSchema is the structural shape every inventory YAML file must
// satisfy before its contents are trusted as host/group declarations.
// Variable bodies (`vars:`) are intentionally left as free-form objects;
// per-operation field validation happens later, in runtime/operation.
const declSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "hosts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "url"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "url": {"type": "string", "minLength": 1},
          "groups": {"type": "array", "items": {"type": "string"}},
          "vars": {"type": "object"}
        }
      }
    },
    "groups": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "before": {"type": "array", "items": {"type": "string"}},
          "after": {"type": "array", "items": {"type": "string"}},
          "vars": {"type": "object"}
        }
      }
    }
  }
}`

var declValidator *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("inventory.json", strings.NewReader(declSchema)); err != nil {
		panic(fmt.Sprintf("inventory: invalid embedded schema: %v", err))
	}
	s, err := compiler.Compile("inventory.json")
	if err != nil {
		panic(fmt.Sprintf("inventory: schema compile failed: %v", err))
	}
	declValidator = s
}

// rawHost/rawGroup mirror the YAML shape before normalization into
// types.HostDecl/types.GroupDecl.
type rawHost struct {
	Name   string         `yaml:"name"`
	URL    string         `yaml:"url"`
	Groups []string       `yaml:"groups"`
	Vars   map[string]any `yaml:"vars"`
}

type rawGroup struct {
	Name   string         `yaml:"name"`
	Before []string       `yaml:"before"`
	After  []string       `yaml:"after"`
	Vars   map[string]any `yaml:"vars"`
}

type rawDoc struct {
	Hosts  []rawHost  `yaml:"hosts"`
	Groups []rawGroup `yaml:"groups"`
}

// ParseFile decodes and schema-validates one inventory YAML document,
// producing normalized host/group declarations tagged with their
// source file for error reporting.
func ParseFile(path string, data []byte) (*types.Inventory, error) {
	// Validate structure against the JSON schema first: yaml.v3 decodes
	// mappings into map[string]interface{}, which jsonschema accepts
	// directly without a JSON round trip.
	var generic any
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&generic); err != nil {
		return nil, ferrors.LoadAt(path, "invalid YAML: %v", err)
	}
	if generic != nil {
		if err := declValidator.Validate(generic); err != nil {
			return nil, ferrors.LoadAt(path, "inventory declaration failed validation: %v", err)
		}
	}

	var doc rawDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, ferrors.LoadAt(path, "invalid YAML: %v", err)
	}

	inv := &types.Inventory{}
	for _, h := range doc.Hosts {
		inv.Hosts = append(inv.Hosts, types.HostDecl{
			Name:       h.Name,
			URL:        h.URL,
			Groups:     h.Groups,
			Vars:       h.Vars,
			SourceFile: path,
		})
	}
	for _, g := range doc.Groups {
		inv.Groups = append(inv.Groups, types.GroupDecl{
			Name:       g.Name,
			Before:     g.Before,
			After:      g.After,
			Vars:       g.Vars,
			SourceFile: path,
		})
	}
	return inv, nil
}

// Merge combines multiple parsed inventory fragments (e.g. one file per
// group plus a hosts file) into a single inventory, as when a deploy
// tree spreads declarations across several YAML files.
func Merge(docs ...*types.Inventory) *types.Inventory {
	out := &types.Inventory{}
	for _, d := range docs {
		out.Hosts = append(out.Hosts, d.Hosts...)
		out.Groups = append(out.Groups, d.Groups...)
	}
	return out
}
