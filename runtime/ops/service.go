package ops

import (
	"strings"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/pkgs/ferrors"
	"github.com/aledsdavies/fora/runtime/connection"
	"github.com/aledsdavies/fora/runtime/operation"
)

// ServiceState is the desired run state of a systemd unit.
type ServiceState string

const (
	ServiceStarted   ServiceState = "started"
	ServiceRestarted ServiceState = "restarted"
	ServiceReloaded  ServiceState = "reloaded"
	ServiceStopped   ServiceState = "stopped"
)

var serviceStateActions = map[ServiceState]string{
	ServiceStarted:   "start",
	ServiceRestarted: "restart",
	ServiceReloaded:  "reload",
	ServiceStopped:   "stop",
}

// ServiceOpts are the optional parameters of Service, grounded on
// operations/systemd.py's `service`.
type ServiceOpts struct {
	// State, if set, is the desired run state. Leave nil to not manage
	// the unit's run state.
	State *ServiceState
	// Enabled, if set, is the desired boot-enablement state.
	Enabled  *bool
	UserMode bool
	Name     string
	NoCheck  bool
}

// Service manages a systemd unit's run state and/or boot enablement.
func (c *Context) Service(service string, opts ServiceOpts) (*types.OperationResult, error) {
	if opts.State != nil {
		if _, ok := serviceStateActions[*opts.State]; !ok {
			return nil, ferrors.InvalidField("state", "invalid target state '"+string(*opts.State)+"'")
		}
	}

	o := c.newOp("service")
	o.Desc(opts.Name, service)

	base := []string{"systemctl"}
	if opts.UserMode {
		base = []string{"systemctl", "--user"}
	}

	activeRes, err := c.Conn.Run(append(append([]string{}, base...), "show", "--value", "--property", "ActiveState", "--", service), connection.RunOpts{CaptureOutput: true})
	if err != nil {
		return nil, err
	}
	active := strings.TrimSpace(string(activeRes.Stdout))
	curState := ServiceStopped
	if active == "active" || active == "activating" {
		curState = ServiceStarted
	}

	unitFileRes, err := c.Conn.Run(append(append([]string{}, base...), "show", "--value", "--property", "UnitFileState", "--", service), connection.RunOpts{CaptureOutput: true})
	if err != nil {
		return nil, err
	}
	curEnabled := strings.TrimSpace(string(unitFileRes.Stdout)) == "enabled"

	o.InitialState(operation.State{"state": string(curState), "enabled": curEnabled})

	finalState := operation.State{}
	if opts.State != nil {
		finalState["state"] = string(*opts.State)
	} else {
		finalState["state"] = nil
	}
	if opts.Enabled != nil {
		finalState["enabled"] = *opts.Enabled
	} else {
		finalState["enabled"] = nil
	}
	o.FinalState(finalState)

	if o.Unchanged(true) {
		return c.checkResult(o.Success(), opts.NoCheck)
	}

	if !c.DryRun {
		if o.Changed("state") && opts.State != nil {
			cmd := append(append([]string{}, base...), serviceStateActions[*opts.State], "--", service)
			if _, err := c.Conn.Run(cmd, connection.RunOpts{}); err != nil {
				return nil, err
			}
		}
		if o.Changed("enabled") && opts.Enabled != nil {
			action := "disable"
			if *opts.Enabled {
				action = "enable"
			}
			cmd := append(append([]string{}, base...), action, "--", service)
			if _, err := c.Conn.Run(cmd, connection.RunOpts{}); err != nil {
				return nil, err
			}
		}
	}

	return c.checkResult(o.Success(), opts.NoCheck)
}
