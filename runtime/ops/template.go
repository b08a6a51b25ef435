package ops

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"text/template"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/pkgs/ferrors"
)

// TemplateOpts are the optional parameters of TemplateContent and
// Template, grounded on operations/files.py's `template_content`/
// `template`. The Python implementation renders with Jinja2; the
// examples pack carries no templating library for any Go repo, so this
// renders with the standard library's text/template instead (see
// DESIGN.md).
type TemplateOpts struct {
	Context map[string]any
	Mode    *string
	Owner   *string
	Group   *string
	Name    string
	NoCheck bool
}

// renderTemplate renders content against host's variables (shadowed by
// opts.Context, itself shadowed by the always-present "host" key),
// mirroring _render_template's variable precedence.
func renderTemplate(content string, host *types.Host, ctx map[string]any) ([]byte, error) {
	t, err := template.New("fora").Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, ferrors.InvalidField("content", "error while templating: "+err.Error())
	}

	vars := make(map[string]any, len(host.Vars)+len(ctx)+1)
	for k, v := range host.Vars {
		vars[k] = v
	}
	for k, v := range ctx {
		vars[k] = v
	}
	vars["host"] = host

	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return nil, ferrors.InvalidField("content", "error while templating: "+err.Error())
	}
	return buf.Bytes(), nil
}

// TemplateContent renders content as a template and uploads the result
// to dest.
func (c *Context) TemplateContent(content, dest string, host *types.Host, opts TemplateOpts) (*types.OperationResult, error) {
	rendered, err := renderTemplate(content, host, opts.Context)
	if err != nil {
		return nil, err
	}
	return c.UploadContent(rendered, dest, UploadOpts{Mode: opts.Mode, Owner: opts.Owner, Group: opts.Group, Name: opts.Name, NoCheck: opts.NoCheck})
}

// Template reads src from the controller's local filesystem, renders
// it as a template, and uploads the result to dest. If dest ends in
// "/", the basename of src is appended.
func (c *Context) Template(src, dest string, host *types.Host, opts TemplateOpts) (*types.OperationResult, error) {
	if dest[len(dest)-1] == '/' {
		dest = path.Join(dest, filepath.Base(src))
	}
	content, err := os.ReadFile(src)
	if err != nil {
		return nil, ferrors.InvalidField("src", "cannot read local file '"+src+"': "+err.Error())
	}
	rendered, err := renderTemplate(string(content), host, opts.Context)
	if err != nil {
		return nil, err
	}
	return c.UploadContent(rendered, dest, UploadOpts{Mode: opts.Mode, Owner: opts.Owner, Group: opts.Group, Name: opts.Name, NoCheck: opts.NoCheck})
}
