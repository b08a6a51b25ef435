package connector

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"syscall"

	"github.com/aledsdavies/fora/core/invariant"
	"github.com/aledsdavies/fora/pkgs/ferrors"
)

// LocalConnector runs the executor as a child process on the
// controller itself, grounded on the teacher's LocalSession (os/exec,
// process-group cancellation) but simplified: since no transport hop
// is involved, the executor binary is exec'd directly instead of
// decoded from an embedded blob.
type LocalConnector struct {
	// ExecutorPath is the path to a fora executor binary. Defaults to
	// re-invoking the controller's own binary with the hidden
	// "--tunnel-executor" flag (see cmd/fora).
	ExecutorPath string

	// Args overrides the arguments passed to ExecutorPath; defaults to
	// {"--tunnel-executor"}. Tests use this to stand a plain command
	// like "cat" in for the real executor.
	Args []string
}

func (c LocalConnector) args() []string {
	if c.Args != nil {
		return c.Args
	}
	return []string{"--tunnel-executor"}
}

func (c LocalConnector) executorPath() (string, error) {
	if c.ExecutorPath != "" {
		return c.ExecutorPath, nil
	}
	self, err := os.Executable()
	if err != nil {
		return "", err
	}
	return self, nil
}

// Dial starts the executor as a subprocess and wires its stdin/stdout
// to the returned Tunnel.
func (c LocalConnector) Dial(ctx context.Context) (Tunnel, error) {
	invariant.NotNil(ctx, "ctx")

	path, err := c.executorPath()
	if err != nil {
		return nil, ferrors.Connection("local", err)
	}

	cmd := exec.CommandContext(ctx, path, c.args()...)
	if runtime.GOOS != "windows" {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, ferrors.Connection("local", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, ferrors.Connection("local", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, ferrors.Connection("local", err)
	}

	return &localTunnel{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

type localTunnel struct {
	cmd   *exec.Cmd
	stdin interface {
		Write([]byte) (int, error)
		Close() error
	}
	stdout interface{ Read([]byte) (int, error) }
}

func (t *localTunnel) Read(p []byte) (int, error)  { return t.stdout.Read(p) }
func (t *localTunnel) Write(p []byte) (int, error) { return t.stdin.Write(p) }

func (t *localTunnel) Close() error {
	_ = t.stdin.Close()
	if t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	return t.cmd.Wait()
}
