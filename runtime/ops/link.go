package ops

import (
	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/pkgs/ferrors"
	"github.com/aledsdavies/fora/runtime/connection"
	"github.com/aledsdavies/fora/runtime/operation"
)

// LinkOpts are the optional parameters of Link, grounded on
// operations/files.py's `link`.
type LinkOpts struct {
	Present bool
	Touch   bool
	Owner   *string
	Group   *string
	Name    string
	NoCheck bool
}

func NewLinkOpts() LinkOpts { return LinkOpts{Present: true} }

// Link manages a symbolic link at path pointing to target.
func (c *Context) Link(path, target string, opts LinkOpts) (*types.OperationResult, error) {
	if err := checkAbsolutePath(path); err != nil {
		return nil, err
	}
	if opts.Present && target == "" {
		return nil, ferrors.InvalidField("target", "link target cannot be empty")
	}

	eff, scope, err := c.withDefaults(types.RemoteSettings{Owner: opts.Owner, Group: opts.Group})
	if err != nil {
		return nil, err
	}
	defer scope.Pop()

	o := c.newOp("link")
	o.Desc(opts.Name, path)

	if opts.Present {
		o.FinalState(operation.State{"exists": true, "target": target, "owner": deref(eff.Owner), "group": deref(eff.Group), "touched": opts.Touch})
	} else {
		o.FinalState(operation.State{"exists": false, "target": nil, "owner": nil, "group": nil, "touched": false})
	}

	stat, err := c.Conn.Stat(path, false, false)
	if err != nil {
		return nil, err
	}
	var existingTarget string
	if stat == nil {
		o.InitialState(operation.State{"exists": false, "target": nil, "owner": nil, "group": nil, "touched": false})
	} else {
		if stat.Type != types.FileTypeLink {
			return c.checkResult(o.Failure("path '"+path+"' exists but is not a link!"), opts.NoCheck)
		}
		res, err := c.Conn.Run([]string{"readlink", "-n", path}, connection.RunOpts{CaptureOutput: true})
		if err != nil {
			return nil, err
		}
		existingTarget = string(res.Stdout)
		o.InitialState(operation.State{"exists": true, "target": existingTarget, "owner": stat.Owner, "group": stat.Group, "touched": false})
	}

	if o.Unchanged(true) {
		return c.checkResult(o.Success(), opts.NoCheck)
	}

	if !c.DryRun {
		if opts.Present {
			if o.Changed("target") {
				if _, err := c.Conn.Run([]string{"ln", "-sf", "--", target, path}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
			if (o.Changed("owner") || o.Changed("group")) && eff.Owner != nil && eff.Group != nil {
				if _, err := c.Conn.Run([]string{"chown", "--no-dereference", *eff.Owner + ":" + *eff.Group, "--", path}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
			if !o.Changed("exists") && o.Changed("touched") {
				if _, err := c.Conn.Run([]string{"touch", "--no-dereference", "--", path}, connection.RunOpts{}); err != nil {
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
