package ops

import (
	"path"
	"strconv"
	"strings"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/runtime/connection"
	"github.com/aledsdavies/fora/runtime/operation"
)

// RepoOpts are the optional parameters of Repo, grounded on
// operations/git.py's `repo`.
type RepoOpts struct {
	BranchOrTag        string
	Update             bool
	Depth              *int
	Rebase             bool
	FfOnly             bool
	UpdateSubmodules   bool
	RecursiveSubmodule bool
	ShallowSubmodules  bool
	Name               string
	NoCheck            bool
}

func NewRepoOpts() RepoOpts { return RepoOpts{Update: true, Rebase: true} }

// Repo clones or updates a git repository (and, optionally, its
// submodules) at path on the remote host.
func (c *Context) Repo(url, repoPath string, opts RepoOpts) (*types.OperationResult, error) {
	if err := checkAbsolutePath(repoPath); err != nil {
		return nil, err
	}

	o := c.newOp("repo")
	o.Desc(opts.Name, repoPath+" ["+url+"]")

	stat, err := c.Conn.Stat(repoPath, false, false)
	if err != nil {
		return nil, err
	}

	var curCommit string
	switch {
	case stat == nil:
		o.InitialState(operation.State{"initialized": false, "commit": nil})
	case stat.Type == types.FileTypeDir:
		gitStat, err := c.Conn.Stat(path.Join(repoPath, ".git"), false, false)
		if err != nil {
			return nil, err
		}
		if gitStat == nil || gitStat.Type != types.FileTypeDir {
			return c.checkResult(o.Failure("directory '"+repoPath+"' already exists but doesn't contain a valid .git directory"), opts.NoCheck)
		}
		res, err := c.Conn.Run([]string{"git", "-C", repoPath, "rev-parse", "HEAD"}, connection.RunOpts{CaptureOutput: true})
		if err != nil {
			return nil, err
		}
		curCommit = strings.TrimSpace(string(res.Stdout))
		o.InitialState(operation.State{"initialized": true, "commit": curCommit})
	default:
		return c.checkResult(o.Failure("path '"+repoPath+"' exists but is not a directory!"), opts.NoCheck)
	}

	if stat != nil && !opts.Update {
		o.FinalState(operation.State{"initialized": true, "commit": curCommit})
		return c.checkResult(o.Success(), opts.NoCheck)
	}

	ref := opts.BranchOrTag
	if ref == "" {
		ref = "HEAD"
	}
	lsRemote, err := c.Conn.Run([]string{"git", "ls-remote", "--exit-code", "--", url, ref}, connection.RunOpts{CaptureOutput: true})
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(strings.TrimSpace(string(lsRemote.Stdout)))
	var newestCommit string
	if len(fields) > 0 {
		newestCommit = fields[0]
	}
	o.FinalState(operation.State{"initialized": true, "commit": newestCommit})

	if o.Unchanged(true) {
		return c.checkResult(o.Success(), opts.NoCheck)
	}

	if !c.DryRun {
		if stat == nil {
			cloneCmd := []string{"git", "clone"}
			if opts.Depth != nil {
				cloneCmd = append(cloneCmd, "--depth", strconv.Itoa(*opts.Depth))
			}
			if opts.BranchOrTag != "" {
				cloneCmd = append(cloneCmd, "--branch", opts.BranchOrTag)
			}
			cloneCmd = append(cloneCmd, "--", url, repoPath)
			if _, err := c.Conn.Run(cloneCmd, connection.RunOpts{}); err != nil {
				return nil, err
			}
			if opts.UpdateSubmodules {
				if err := c.submoduleUpdate(repoPath, opts); err != nil {
					return nil, err
				}
			}
		} else {
			remoteRes, err := c.Conn.Run([]string{"git", "-C", repoPath, "config", "--get", "remote.origin.url"}, connection.RunOpts{CaptureOutput: true})
			if err != nil {
				return nil, err
			}
			currentRemote := strings.TrimSpace(string(remoteRes.Stdout))
			if currentRemote != url {
				return c.checkResult(o.Failure("refusing to update existing git repository with different remote url '"+currentRemote+"'"), opts.NoCheck)
			}

			updateCmd := []string{"git", "-C", repoPath, "pull"}
			if opts.Depth != nil {
				updateCmd = append(updateCmd, "--depth", strconv.Itoa(*opts.Depth))
			}
			if opts.Rebase {
				updateCmd = append(updateCmd, "--rebase")
			}
			if opts.FfOnly {
				updateCmd = append(updateCmd, "--ff-only")
			}
			if _, err := c.Conn.Run(updateCmd, connection.RunOpts{}); err != nil {
				return nil, err
			}
			if opts.UpdateSubmodules {
				if err := c.submoduleUpdate(repoPath, opts); err != nil {
					return nil, err
				}
			}
		}
	}

	return c.checkResult(o.Success(), opts.NoCheck)
}

func (c *Context) submoduleUpdate(repoPath string, opts RepoOpts) error {
	cmd := []string{"git", "-C", repoPath, "submodule", "update", "--init"}
	if opts.ShallowSubmodules && opts.Depth != nil {
		cmd = append(cmd, "--depth", strconv.Itoa(*opts.Depth))
	}
	if opts.RecursiveSubmodule {
		cmd = append(cmd, "--recursive")
	}
	_, err := c.Conn.Run(cmd, connection.RunOpts{})
	return err
}
