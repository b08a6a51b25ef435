package ops

import (
	"strconv"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/runtime/connection"
	"github.com/aledsdavies/fora/runtime/operation"
)

// GroupOpts are the optional parameters of Group, grounded on
// operations/system.py's `group`.
type GroupOpts struct {
	Present bool
	GID     *int
	System  bool
	Name    string
	NoCheck bool
}

func NewGroupOpts() GroupOpts { return GroupOpts{Present: true} }

// Group creates, modifies or deletes a unix group.
func (c *Context) Group(group string, opts GroupOpts) (*types.OperationResult, error) {
	o := c.newOp("group")
	o.Desc(opts.Name, group)

	current, err := c.Conn.QueryGroup(group)
	if err != nil {
		return nil, err
	}

	if current == nil {
		o.InitialState(operation.State{"exists": false, "gid": nil})
	} else {
		o.InitialState(operation.State{"exists": true, "gid": int(current.GID)})
	}

	var targetGID *int
	if opts.GID != nil {
		targetGID = opts.GID
	} else if current != nil {
		gid := int(current.GID)
		targetGID = &gid
	}

	if opts.Present {
		o.FinalState(operation.State{"exists": true, "gid": derefInt(targetGID)})
	} else {
		o.FinalState(operation.State{"exists": false, "gid": nil})
	}

	if o.Unchanged(true) {
		return c.checkResult(o.Success(), opts.NoCheck)
	}

	if !c.DryRun {
		if o.Changed("exists") {
			if opts.Present {
				cmd := []string{"groupadd"}
				if opts.System {
					cmd = append(cmd, "--system")
				}
				if targetGID != nil {
					cmd = append(cmd, "--gid", strconv.Itoa(*targetGID))
				}
				cmd = append(cmd, "--", group)
				if _, err := c.Conn.Run(cmd, connection.RunOpts{}); err != nil {
					return nil, err
				}
			} else {
				if _, err := c.Conn.Run([]string{"groupdel", "--", group}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
		} else if opts.Present && o.Changed("gid") && targetGID != nil {
			if _, err := c.Conn.Run([]string{"groupmod", "--gid", strconv.Itoa(*targetGID), "--", group}, connection.RunOpts{}); err != nil {
				return nil, err
			}
		}
	}

	return c.checkResult(o.Success(), opts.NoCheck)
}
