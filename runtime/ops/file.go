package ops

import (
	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/runtime/connection"
	"github.com/aledsdavies/fora/runtime/operation"
)

// FileOpts are the optional parameters of File, grounded on
// operations/files.py's `file`.
type FileOpts struct {
	Present bool
	Touch   bool
	Mode    *string
	Owner   *string
	Group   *string
	Name    string
	NoCheck bool
}

func NewFileOpts() FileOpts { return FileOpts{Present: true} }

// File creates, deletes or updates an empty/existing file's presence,
// mode, owner and group (content is managed by Upload/UploadContent,
// not File). If path exists but isn't a regular file, the operation
// fails.
func (c *Context) File(path string, opts FileOpts) (*types.OperationResult, error) {
	if err := checkAbsolutePath(path); err != nil {
		return nil, err
	}

	eff, scope, err := c.withDefaults(types.RemoteSettings{FileMode: opts.Mode, Owner: opts.Owner, Group: opts.Group})
	if err != nil {
		return nil, err
	}
	defer scope.Pop()

	o := c.newOp("file")
	o.Desc(opts.Name, path)

	if opts.Present {
		o.FinalState(operation.State{
			"exists": true, "mode": deref(eff.FileMode), "owner": deref(eff.Owner),
			"group": deref(eff.Group), "touched": opts.Touch,
		})
	} else {
		o.FinalState(operation.State{"exists": false, "mode": nil, "owner": nil, "group": nil, "touched": false})
	}

	stat, err := c.Conn.Stat(path, false, false)
	if err != nil {
		return nil, err
	}
	if stat == nil {
		o.InitialState(operation.State{"exists": false, "mode": nil, "owner": nil, "group": nil, "touched": false})
	} else {
		if stat.Type != types.FileTypeFile {
			return c.checkResult(o.Failure("path '"+path+"' exists but is not a file!"), opts.NoCheck)
		}
		o.InitialState(operation.State{"exists": true, "mode": stat.Mode, "owner": stat.Owner, "group": stat.Group, "touched": false})
	}

	if o.Unchanged(true) {
		return c.checkResult(o.Success(), opts.NoCheck)
	}

	if !c.DryRun {
		if opts.Present {
			if o.Changed("exists") || o.Changed("touched") {
				if _, err := c.Conn.Run([]string{"touch", "--", path}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
			if o.Changed("mode") && eff.FileMode != nil {
				if _, err := c.Conn.Run([]string{"chmod", *eff.FileMode, "--", path}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
			if (o.Changed("owner") || o.Changed("group")) && eff.Owner != nil && eff.Group != nil {
				if _, err := c.Conn.Run([]string{"chown", *eff.Owner + ":" + *eff.Group, "--", path}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
		} else if o.Changed("exists") {
			if _, err := c.Conn.Run([]string{"rm", "--", path}, connection.RunOpts{}); err != nil {
				return nil, err
			}
		}
	}

	return c.checkResult(o.Success(), opts.NoCheck)
}
