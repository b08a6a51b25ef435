package executor

import (
	"os"
	"os/user"
	"strconv"
	"strings"

	"github.com/aledsdavies/fora/core/wire"
)

// handleResolveUser canonicalises a username (or, when Name is nil,
// the executor's own running identity) into a canonical name.
func (e *Executor) handleResolveUser(p wire.ResolveUser) error {
	if p.Name == nil {
		u, err := user.Current()
		if err != nil {
			return e.replyOSErr(err)
		}
		return wire.WritePacket(e.w, wire.ResolveResult{Value: u.Username})
	}
	u, err := lookupUser(*p.Name)
	if err != nil {
		return e.replyInvalidField("name", "no such user")
	}
	return wire.WritePacket(e.w, wire.ResolveResult{Value: u.Username})
}

// handleResolveGroup canonicalises a group name (or the executor's
// own primary group when Name is nil).
func (e *Executor) handleResolveGroup(p wire.ResolveGroup) error {
	if p.Name == nil {
		u, err := user.Current()
		if err != nil {
			return e.replyOSErr(err)
		}
		g, err := user.LookupGroupId(u.Gid)
		if err != nil {
			return e.replyOSErr(err)
		}
		return wire.WritePacket(e.w, wire.ResolveResult{Value: g.Name})
	}
	g, err := lookupGroup(*p.Name)
	if err != nil {
		return e.replyInvalidField("name", "no such group")
	}
	return wire.WritePacket(e.w, wire.ResolveResult{Value: g.Name})
}

// handleQueryUser reads the passwd/shadow entry for name and
// aggregates supplementary group membership by scanning the group
// database, per spec.md §4.1.
func (e *Executor) handleQueryUser(p wire.QueryUser) error {
	u, err := lookupUser(p.Name)
	if err != nil {
		return e.replyInvalidField("name", "no such user")
	}

	uid, _ := strconv.ParseUint(u.Uid, 10, 64)
	gid, _ := strconv.ParseUint(u.Gid, 10, 64)

	primary, err := user.LookupGroupId(u.Gid)
	primaryName := u.Gid
	if err == nil {
		primaryName = primary.Name
	}

	groupIDs, err := u.GroupIds()
	if err != nil {
		return e.replyOSErr(err)
	}
	var supplementary []string
	for _, gidStr := range groupIDs {
		if gidStr == u.Gid {
			continue
		}
		if g, err := user.LookupGroupId(gidStr); err == nil {
			supplementary = append(supplementary, g.Name)
		}
	}

	passwordHash := readShadowHash(u.Username)

	return wire.WritePacket(e.w, wire.UserEntry{
		Name:                u.Username,
		UID:                 uid,
		PrimaryGroupName:    primaryName,
		GID:                 gid,
		SupplementaryGroups: supplementary,
		PasswordHash:        passwordHash,
		Gecos:               u.Name,
		Home:                u.HomeDir,
		Shell:               loginShell(u.Username),
	})
}

// handleQueryGroup reads the group database entry for name.
func (e *Executor) handleQueryGroup(p wire.QueryGroup) error {
	g, err := lookupGroup(p.Name)
	if err != nil {
		return e.replyInvalidField("name", "no such group")
	}
	gid, _ := strconv.ParseUint(g.Gid, 10, 64)
	return wire.WritePacket(e.w, wire.GroupEntry{
		Name:    g.Name,
		GID:     gid,
		Members: groupMembers(g.Name),
	})
}

// readShadowHash reads /etc/shadow's password-hash field for name.
// Returns "" when /etc/shadow is unreadable (unprivileged executor) or
// the user has no shadow entry -- this is best-effort, not a security
// boundary.
func readShadowHash(name string) string {
	data, err := os.ReadFile("/etc/shadow")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Split(line, ":")
		if len(fields) > 1 && fields[0] == name {
			return fields[1]
		}
	}
	return ""
}

// loginShell reads /etc/passwd's shell field for name, since
// os/user.User doesn't expose it directly.
func loginShell(name string) string {
	data, err := os.ReadFile("/etc/passwd")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Split(line, ":")
		if len(fields) > 6 && fields[0] == name {
			return fields[6]
		}
	}
	return ""
}

// groupMembers reads /etc/group's member list for name, since
// os/user.Group doesn't expose it directly.
func groupMembers(name string) []string {
	data, err := os.ReadFile("/etc/group")
	if err != nil {
		return nil
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Split(line, ":")
		if len(fields) > 3 && fields[0] == name {
			if fields[3] == "" {
				return nil
			}
			return strings.Split(fields[3], ",")
		}
	}
	return nil
}
