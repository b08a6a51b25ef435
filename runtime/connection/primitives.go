package connection

import (
	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/core/wire"
	"github.com/aledsdavies/fora/pkgs/ferrors"
)

// RunOpts are the caller-supplied overrides for Run; nil fields fall
// back to the connection's effective defaults.
type RunOpts struct {
	Stdin         []byte
	CaptureOutput bool
	User          *string
	Group         *string
	Umask         *string
	Cwd           *string
}

// RunResult mirrors the executor's ProcessCompleted reply.
type RunResult struct {
	Stdout     []byte
	Stderr     []byte
	ReturnCode int32
}

// Run executes command on the remote host via ProcessRun.
func (c *Connection) Run(command []string, opts RunOpts) (*RunResult, error) {
	resp, err := c.roundTrip(wire.ProcessRun{
		Command:       command,
		Stdin:         opts.Stdin,
		CaptureOutput: opts.CaptureOutput,
		User:          opts.User,
		Group:         opts.Group,
		Umask:         opts.Umask,
		Cwd:           opts.Cwd,
	})
	if err != nil {
		return nil, err
	}
	switch r := resp.(type) {
	case wire.ProcessCompleted:
		return &RunResult{Stdout: r.Stdout, Stderr: r.Stderr, ReturnCode: r.ReturnCode}, nil
	case wire.ProcessError:
		return nil, ferrors.Connection(c.Host, ferrors.Protocol("%s", r.Message))
	default:
		return nil, ferrors.Protocol("unexpected response %T to ProcessRun", resp)
	}
}

// Stat probes path. A nonexistent path is normalised to (nil, nil)
// rather than an error (spec §4.3).
func (c *Connection) Stat(path string, followLinks, sha512Sum bool) (*types.StatResult, error) {
	resp, err := c.roundTrip(wire.Stat{Path: path, FollowLinks: followLinks, Sha512Sum: sha512Sum})
	if err != nil {
		if field, ok := ferrors.Field(err); ok && field == "path" {
			return nil, nil
		}
		return nil, err
	}
	r, ok := resp.(wire.StatResult)
	if !ok {
		return nil, ferrors.Protocol("unexpected response %T to Stat", resp)
	}
	return &types.StatResult{
		Type: types.FileType(r.Type), Mode: types.FormatOctal(r.Mode), Owner: r.Owner, Group: r.Group,
		Size: r.Size, MtimeNs: r.Mtime, CtimeNs: r.Ctime, Sha512Sum: r.Sha512Sum,
	}, nil
}

// ResolveUser canonicalises a username (or, if name is nil, the
// executor's own running identity).
func (c *Connection) ResolveUser(name *string) (string, error) {
	resp, err := c.roundTrip(wire.ResolveUser{Name: name})
	if err != nil {
		return "", err
	}
	r, ok := resp.(wire.ResolveResult)
	if !ok {
		return "", ferrors.Protocol("unexpected response %T to ResolveUser", resp)
	}
	return r.Value, nil
}

// ResolveGroup canonicalises a group name (or the executor's own
// primary group when name is nil).
func (c *Connection) ResolveGroup(name *string) (string, error) {
	resp, err := c.roundTrip(wire.ResolveGroup{Name: name})
	if err != nil {
		return "", err
	}
	r, ok := resp.(wire.ResolveResult)
	if !ok {
		return "", ferrors.Protocol("unexpected response %T to ResolveGroup", resp)
	}
	return r.Value, nil
}

// QueryUser returns the full passwd/shadow/group entry for name. A
// nonexistent user is normalised to (nil, nil) rather than an error, so
// callers can use it as an existence probe (e.g. the user operation).
func (c *Connection) QueryUser(name string) (*types.UserEntry, error) {
	resp, err := c.roundTrip(wire.QueryUser{Name: name})
	if err != nil {
		if field, ok := ferrors.Field(err); ok && field == "name" {
			return nil, nil
		}
		return nil, err
	}
	r, ok := resp.(wire.UserEntry)
	if !ok {
		return nil, ferrors.Protocol("unexpected response %T to QueryUser", resp)
	}
	return &types.UserEntry{
		Name: r.Name, UID: r.UID, PrimaryGroupName: r.PrimaryGroupName, GID: r.GID,
		SupplementaryGroups: r.SupplementaryGroups, PasswordHash: r.PasswordHash,
		Gecos: r.Gecos, Home: r.Home, Shell: r.Shell,
	}, nil
}

// QueryGroup returns the full group database entry for name. A
// nonexistent group is normalised to (nil, nil) rather than an error.
func (c *Connection) QueryGroup(name string) (*types.GroupEntry, error) {
	resp, err := c.roundTrip(wire.QueryGroup{Name: name})
	if err != nil {
		if field, ok := ferrors.Field(err); ok && field == "name" {
			return nil, nil
		}
		return nil, err
	}
	r, ok := resp.(wire.GroupEntry)
	if !ok {
		return nil, ferrors.Protocol("unexpected response %T to QueryGroup", resp)
	}
	return &types.GroupEntry{Name: r.Name, GID: r.GID, Members: r.Members}, nil
}

// UploadOpts are the caller-supplied metadata overrides for Upload.
type UploadOpts struct {
	Mode  *string
	Owner *string
	Group *string
}

// Upload writes content to path on the remote host.
func (c *Connection) Upload(path string, content []byte, opts UploadOpts) error {
	resp, err := c.roundTrip(wire.Upload{Path: path, Content: content, Mode: opts.Mode, Owner: opts.Owner, Group: opts.Group})
	if err != nil {
		return err
	}
	if _, ok := resp.(wire.Ok); !ok {
		return ferrors.Protocol("unexpected response %T to Upload", resp)
	}
	return nil
}

// Download reads path's whole content. A nonexistent path is
// normalised to (nil, nil).
func (c *Connection) Download(path string) ([]byte, error) {
	resp, err := c.roundTrip(wire.Download{Path: path})
	if err != nil {
		if field, ok := ferrors.Field(err); ok && field == "path" {
			return nil, nil
		}
		return nil, err
	}
	r, ok := resp.(wire.DownloadResult)
	if !ok {
		return nil, ferrors.Protocol("unexpected response %T to Download", resp)
	}
	return r.Content, nil
}
