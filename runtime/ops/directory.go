package ops

import (
	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/runtime/connection"
	"github.com/aledsdavies/fora/runtime/operation"
)

// DirectoryOpts are the optional parameters of Directory, grounded on
// operations/files.py's `directory`.
type DirectoryOpts struct {
	Present bool // defaults to true; see NewDirectoryOpts
	Touch   bool
	Mode    *string
	Owner   *string
	Group   *string
	Name    string
	NoCheck bool
}

// NewDirectoryOpts returns DirectoryOpts with Present defaulting to
// true, matching the Python default of present=True.
func NewDirectoryOpts() DirectoryOpts { return DirectoryOpts{Present: true} }

// Directory manages the existence, mode, owner and group of a
// directory on the remote host. If path exists but isn't a directory,
// the operation fails.
func (c *Context) Directory(path string, opts DirectoryOpts) (*types.OperationResult, error) {
	if err := checkAbsolutePath(path); err != nil {
		return nil, err
	}

	eff, scope, err := c.withDefaults(types.RemoteSettings{DirMode: opts.Mode, Owner: opts.Owner, Group: opts.Group})
	if err != nil {
		return nil, err
	}
	defer scope.Pop()

	o := c.newOp("dir")
	o.Desc(opts.Name, path)

	if opts.Present {
		o.FinalState(operation.State{
			"exists": true, "mode": deref(eff.DirMode), "owner": deref(eff.Owner),
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
		if stat.Type != types.FileTypeDir {
			return c.checkResult(o.Failure("path '"+path+"' exists but is not a directory!"), opts.NoCheck)
		}
		o.InitialState(operation.State{"exists": true, "mode": stat.Mode, "owner": stat.Owner, "group": stat.Group, "touched": false})
	}

	if o.Unchanged(true) {
		return c.checkResult(o.Success(), opts.NoCheck)
	}

	if !c.DryRun {
		if opts.Present {
			if o.Changed("exists") {
				if _, err := c.Conn.Run([]string{"mkdir", "--", path}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
			if o.Changed("mode") && eff.DirMode != nil {
				if _, err := c.Conn.Run([]string{"chmod", *eff.DirMode, "--", path}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
			if (o.Changed("owner") || o.Changed("group")) && eff.Owner != nil && eff.Group != nil {
				if _, err := c.Conn.Run([]string{"chown", *eff.Owner + ":" + *eff.Group, "--", path}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
			if !o.Changed("exists") && o.Changed("touched") {
				if _, err := c.Conn.Run([]string{"touch", "--", path}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
		} else if o.Changed("exists") {
			if _, err := c.Conn.Run([]string{"rm", "-rf", "--", path}, connection.RunOpts{}); err != nil {
				return nil, err
			}
		}
	}

	return c.checkResult(o.Success(), opts.NoCheck)
}
