package script

import "fmt"

// ParamSpec declares one script parameter: its name, whether it is
// required, and its default when omitted (and not required).
type ParamSpec struct {
	Name     string
	Required bool
	Default  any
}

// resolveParams merges provided values onto each declared parameter's
// default. A missing required parameter is an error; extraneous
// provided parameters (not named in spec) are ignored, per spec.md
// §4.7 step 4.
func resolveParams(spec []ParamSpec, provided map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(spec))
	for _, p := range spec {
		value, given := provided[p.Name]
		switch {
		case given:
			resolved[p.Name] = value
		case p.Required:
			return nil, fmt.Errorf("script requires parameter %q, but no such parameter was given", p.Name)
		default:
			resolved[p.Name] = p.Default
		}
	}
	return resolved, nil
}
