package ops

import (
	"sort"
	"strconv"
	"strings"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/runtime/connection"
	"github.com/aledsdavies/fora/runtime/operation"
)

// UserOpts are the optional parameters of User, grounded on
// operations/system.py's `user`.
type UserOpts struct {
	Present      bool
	UID          *int
	Group        *string
	Groups       []string
	AppendGroups bool
	System       bool
	PasswordHash *string
	Home         *string
	Shell        *string
	Comment      *string
	Name         string
	NoCheck      bool
}

func NewUserOpts() UserOpts { return UserOpts{Present: true} }

// User creates, modifies or deletes a unix user. The home directory is
// never created by this operation (use Directory for that). Deleting a
// user may also delete its primary group, a quirk of `userdel` that
// applies when USERGROUPS_ENAB is set on the target, just as upstream.
func (c *Context) User(user string, opts UserOpts) (*types.OperationResult, error) {
	o := c.newOp("user")
	o.Desc(opts.Name, user)

	current, err := c.Conn.QueryUser(user)
	if err != nil {
		return nil, err
	}

	if current == nil {
		o.InitialState(operation.State{"exists": false, "uid": nil, "group": nil, "groups": []string(nil), "comment": nil, "home": nil, "shell": nil, "password_hash": nil})
	} else {
		o.InitialState(operation.State{
			"exists": true, "uid": int(current.UID), "group": current.PrimaryGroupName, "groups": current.SupplementaryGroups,
			"comment": current.Gecos, "home": current.Home, "shell": current.Shell, "password_hash": current.PasswordHash,
		})
	}

	targetUID := intOr(opts.UID, current)
	targetGroup := strOrFromUser(opts.Group, current, func(u *types.UserEntry) string { return u.PrimaryGroupName })
	var targetGroups []string
	if opts.AppendGroups {
		set := map[string]bool{}
		for _, g := range opts.Groups {
			set[g] = true
		}
		if current != nil {
			for _, g := range current.SupplementaryGroups {
				set[g] = true
			}
		}
		for g := range set {
			targetGroups = append(targetGroups, g)
		}
		sort.Strings(targetGroups)
	} else if len(opts.Groups) > 0 {
		targetGroups = opts.Groups
	} else if current != nil {
		targetGroups = current.SupplementaryGroups
	}
	targetPasswordHash := strOrFromUser(opts.PasswordHash, current, func(u *types.UserEntry) string { return u.PasswordHash })
	targetComment := strOrFromUser(opts.Comment, current, func(u *types.UserEntry) string { return u.Gecos })
	targetHome := "/dev/null"
	if opts.Home != nil {
		targetHome = *opts.Home
	} else if current != nil {
		targetHome = current.Home
	}
	targetShell := "/sbin/nologin"
	if opts.Shell != nil {
		targetShell = *opts.Shell
	} else if current != nil {
		targetShell = current.Shell
	}

	if opts.Present {
		o.FinalState(operation.State{
			"exists": true, "uid": derefInt(targetUID), "group": deref(targetGroup), "groups": targetGroups,
			"comment": deref(targetComment), "home": targetHome, "shell": targetShell, "password_hash": deref(targetPasswordHash),
		})
	} else {
		o.FinalState(operation.State{"exists": false, "uid": nil, "group": nil, "groups": []string(nil), "comment": nil, "home": nil, "shell": nil, "password_hash": nil})
	}

	if o.Unchanged(true) {
		return c.checkResult(o.Success(), opts.NoCheck)
	}

	if !c.DryRun {
		if o.Changed("exists") {
			if opts.Present {
				cmd := []string{"useradd"}
				if opts.System {
					cmd = append(cmd, "--system")
				}
				if targetUID != nil {
					cmd = append(cmd, "--uid", strconv.Itoa(*targetUID))
				}
				if targetGroup == nil {
					cmd = append(cmd, "--user-group")
				} else {
					cmd = append(cmd, "--no-user-group", "--gid", *targetGroup)
				}
				if len(targetGroups) > 0 {
					cmd = append(cmd, "--groups", strings.Join(targetGroups, ","))
				}
				if targetComment != nil {
					cmd = append(cmd, "--comment", *targetComment)
				}
				cmd = append(cmd, "--no-create-home", "--home-dir", targetHome)
				cmd = append(cmd, "--shell", targetShell)
				if targetPasswordHash != nil {
					cmd = append(cmd, "--password", *targetPasswordHash)
				}
				cmd = append(cmd, "--", user)
				if _, err := c.Conn.Run(cmd, connection.RunOpts{}); err != nil {
					return nil, err
				}
			} else {
				if _, err := c.Conn.Run([]string{"userdel", "--", user}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
		} else if opts.Present {
			if o.Changed("uid") && targetUID != nil {
				if _, err := c.Conn.Run([]string{"usermod", "--uid", strconv.Itoa(*targetUID), "--", user}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
			if o.Changed("group") && targetGroup != nil {
				if _, err := c.Conn.Run([]string{"usermod", "--gid", *targetGroup, "--", user}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
			if o.Changed("groups") && len(targetGroups) > 0 {
				if _, err := c.Conn.Run([]string{"usermod", "--groups", strings.Join(targetGroups, ","), "--", user}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
			if o.Changed("comment") && targetComment != nil {
				if _, err := c.Conn.Run([]string{"usermod", "--comment", *targetComment, "--", user}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
			if o.Changed("home") {
				if _, err := c.Conn.Run([]string{"usermod", "--home", targetHome, "--", user}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
			if o.Changed("shell") {
				if _, err := c.Conn.Run([]string{"usermod", "--shell", targetShell, "--", user}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
			if o.Changed("password_hash") && targetPasswordHash != nil {
				if _, err := c.Conn.Run([]string{"usermod", "--password", *targetPasswordHash, "--", user}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
		}
	}

	return c.checkResult(o.Success(), opts.NoCheck)
}

func intOr(given *int, current *types.UserEntry) *int {
	if given != nil {
		return given
	}
	if current != nil {
		uid := int(current.UID)
		return &uid
	}
	return nil
}

func strOrFromUser(given *string, current *types.UserEntry, get func(*types.UserEntry) string) *string {
	if given != nil {
		return given
	}
	if current != nil {
		v := get(current)
		if v != "" {
			return &v
		}
	}
	return nil
}

func derefInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}
