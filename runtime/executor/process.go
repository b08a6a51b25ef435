package executor

import (
	"bytes"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/aledsdavies/fora/core/wire"
)

// handleProcessRun executes command, optionally dropping privileges
// to user/group, setting umask and cwd, capturing output when
// requested. Per spec.md §4.1: a non-zero exit is not itself an
// error at this layer, only spawn/pre-exec failures are (ProcessError);
// invalid field values (bad umask, unknown user/group) are
// InvalidField.
func (e *Executor) handleProcessRun(p wire.ProcessRun) error {
	if len(p.Command) == 0 {
		return e.replyInvalidField("command", "command must not be empty")
	}

	cmd := exec.Command(p.Command[0], p.Command[1:]...)

	if p.Cwd != nil {
		cmd.Dir = *p.Cwd
	}

	var umask *os.FileMode
	if p.Umask != nil {
		m, err := parseOctalMode(*p.Umask)
		if err != nil {
			return e.replyInvalidField("umask", err.Error())
		}
		umask = &m
	}

	cred, err := credentialFor(p.User, p.Group)
	if err != nil {
		return e.replyInvalidField(credentialField(p.User, p.Group), err.Error())
	}
	if cred != nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{Credential: cred}
	}

	if p.CaptureOutput {
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if len(p.Stdin) > 0 {
			cmd.Stdin = bytes.NewReader(p.Stdin)
		}

		if umask != nil {
			restore := setUmask(*umask)
			err = cmd.Run()
			restore()
		} else {
			err = cmd.Run()
		}

		var exitErr *exec.ExitError
		switch {
		case err == nil:
			return wire.WritePacket(e.w, wire.ProcessCompleted{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ReturnCode: 0})
		case asExitError(err, &exitErr):
			return wire.WritePacket(e.w, wire.ProcessCompleted{
				Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ReturnCode: int32(exitErr.ExitCode()),
			})
		default:
			return wire.WritePacket(e.w, wire.ProcessError{Message: err.Error()})
		}
	}

	if len(p.Stdin) > 0 {
		cmd.Stdin = bytes.NewReader(p.Stdin)
	}

	var runErr error
	if umask != nil {
		restore := setUmask(*umask)
		runErr = cmd.Run()
		restore()
	} else {
		runErr = cmd.Run()
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		return wire.WritePacket(e.w, wire.ProcessCompleted{ReturnCode: 0})
	case asExitError(runErr, &exitErr):
		return wire.WritePacket(e.w, wire.ProcessCompleted{ReturnCode: int32(exitErr.ExitCode())})
	default:
		return wire.WritePacket(e.w, wire.ProcessError{Message: runErr.Error()})
	}
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}
	*target = ee
	return true
}

// setUmask applies mask for the duration of a child spawn and returns
// a function restoring the executor's own default umask. The process
// umask is inherited by the child at fork time, so this brackets the
// single cmd.Run call rather than being set once at startup.
func setUmask(mask os.FileMode) func() {
	syscall.Umask(int(mask))
	return func() { syscall.Umask(defaultUmask) }
}

// credentialFor resolves optional user/group overrides into a
// syscall.Credential for privilege-dropping the child process. Both
// nil means "inherit the executor's own identity" (no Credential set).
func credentialFor(userName, groupName *string) (*syscall.Credential, error) {
	if userName == nil && groupName == nil {
		return nil, nil
	}

	cred := &syscall.Credential{}
	if userName != nil {
		u, err := lookupUser(*userName)
		if err != nil {
			return nil, err
		}
		uid, err := strconv.ParseUint(u.Uid, 10, 32)
		if err != nil {
			return nil, err
		}
		cred.Uid = uint32(uid)
		if groupName == nil {
			gid, err := strconv.ParseUint(u.Gid, 10, 32)
			if err != nil {
				return nil, err
			}
			cred.Gid = uint32(gid)
		}
	}
	if groupName != nil {
		g, err := lookupGroup(*groupName)
		if err != nil {
			return nil, err
		}
		gid, err := strconv.ParseUint(g.Gid, 10, 32)
		if err != nil {
			return nil, err
		}
		cred.Gid = uint32(gid)
	}
	return cred, nil
}

func credentialField(userName, groupName *string) string {
	if userName != nil {
		return "user"
	}
	if groupName != nil {
		return "group"
	}
	return "user"
}
