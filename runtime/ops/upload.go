package ops

import (
	"crypto/sha512"
	"os"
	"path"
	"path/filepath"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/runtime/connection"
	"github.com/aledsdavies/fora/runtime/operation"
)

// UploadOpts are the optional parameters shared by UploadContent and
// Upload, grounded on operations/files.py's `upload_content`/`upload`
// and operations/utils.py's `save_content`.
type UploadOpts struct {
	Mode    *string
	Owner   *string
	Group   *string
	Name    string
	NoCheck bool
}

// UploadContent writes content as dest's whole file content on the
// remote host, creating or overwriting it as needed.
func (c *Context) UploadContent(content []byte, dest string, opts UploadOpts) (*types.OperationResult, error) {
	if err := checkAbsolutePath(dest); err != nil {
		return nil, err
	}
	o := c.newOp("upload_content")
	o.Desc(opts.Name, dest)
	return c.saveContent(o, content, dest, opts)
}

// Upload reads src from the controller's local filesystem and uploads
// it to dest, overwriting any existing file. If dest ends in "/", the
// basename of src is appended.
func (c *Context) Upload(src, dest string, opts UploadOpts) (*types.OperationResult, error) {
	if err := checkAbsolutePath(dest); err != nil {
		return nil, err
	}
	if dest[len(dest)-1] == '/' {
		dest = path.Join(dest, filepath.Base(src))
	}
	o := c.newOp("upload")
	o.Desc(opts.Name, dest)

	content, err := os.ReadFile(src)
	if err != nil {
		return c.checkResult(o.Failure("cannot read local file '"+src+"': "+err.Error()), opts.NoCheck)
	}
	return c.saveContent(o, content, dest, opts)
}

// saveContent is the shared probe/plan/apply body of UploadContent and
// Upload (and indirectly UploadDir, via Upload): compares the desired
// content's sha512 against the remote file's, uploading only when the
// hash, mode, owner or group actually differ.
func (c *Context) saveContent(o *operation.Op, content []byte, dest string, opts UploadOpts) (*types.OperationResult, error) {
	eff, scope, err := c.withDefaults(types.RemoteSettings{FileMode: opts.Mode, Owner: opts.Owner, Group: opts.Group})
	if err != nil {
		return nil, err
	}
	defer scope.Pop()

	sum := sha512.Sum512(content)
	o.FinalState(operation.State{
		"exists": true, "mode": deref(eff.FileMode), "owner": deref(eff.Owner),
		"group": deref(eff.Group), "sha512": sum[:],
	})

	stat, err := c.Conn.Stat(dest, false, true)
	if err != nil {
		return nil, err
	}
	if stat == nil {
		o.InitialState(operation.State{"exists": false, "mode": nil, "owner": nil, "group": nil, "sha512": nil})
	} else {
		if stat.Type != types.FileTypeFile {
			return c.checkResult(o.Failure("path '"+dest+"' exists but is not a file!"), opts.NoCheck)
		}
		o.InitialState(operation.State{"exists": true, "mode": stat.Mode, "owner": stat.Owner, "group": stat.Group, "sha512": stat.Sha512Sum})
	}

	if o.Unchanged(true) {
		return c.checkResult(o.Success(), opts.NoCheck)
	}

	if c.Diffing {
		old, err := c.Conn.Download(dest)
		if err != nil {
			return nil, err
		}
		o.Diff(dest, old, content)
	}

	if !c.DryRun {
		if o.Changed("exists") || o.Changed("sha512") {
			if err := c.Conn.Upload(dest, content, connection.UploadOpts{Mode: eff.FileMode, Owner: eff.Owner, Group: eff.Group}); err != nil {
				return nil, err
			}
		} else {
			if o.Changed("mode") && eff.FileMode != nil {
				if _, err := c.Conn.Run([]string{"chmod", *eff.FileMode, "--", dest}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
			if (o.Changed("owner") || o.Changed("group")) && eff.Owner != nil && eff.Group != nil {
				if _, err := c.Conn.Run([]string{"chown", *eff.Owner + ":" + *eff.Group, "--", dest}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
		}
	}

	return c.checkResult(o.Success(), opts.NoCheck)
}
