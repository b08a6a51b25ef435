package connector

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/aledsdavies/fora/core/invariant"
	"github.com/aledsdavies/fora/pkgs/ferrors"
)

// SSHConnector dials a host over SSH and bootstraps the remote
// executor on a single persistent session, grounded on the teacher's
// core/decorator.SSHSession auth/host-key plumbing but restructured:
// instead of one ssh.Session.Run per command, one session is opened,
// the executor is exec'd on it, and its stdin/stdout become the
// tunnel byte stream for the lifetime of the connection.
type SSHConnector struct {
	Host           string
	Port           int
	User           string
	KeyPath        string
	Signer         ssh.Signer
	StrictHostKey  bool
	KnownHostsPath string
	OSArch         string // e.g. "linux/amd64"; defaults to "linux/amd64"

	// command, when set, replaces the computed BootstrapCommand. Used by
	// tests to exercise Dial against a fake SSH server without needing a
	// real embedded executor blob.
	command string
}

func (c SSHConnector) osArch() string {
	if c.OSArch == "" {
		return "linux/amd64"
	}
	return c.OSArch
}

func (c SSHConnector) port() int {
	if c.Port == 0 {
		return 22
	}
	return c.Port
}

func (c SSHConnector) user() string {
	if c.User != "" {
		return c.User
	}
	return os.Getenv("USER")
}

// Dial connects, authenticates, and execs the bootstrap command on a
// fresh SSH session, returning its stdin/stdout as the tunnel stream.
func (c SSHConnector) Dial(ctx context.Context) (Tunnel, error) {
	invariant.NotNil(ctx, "ctx")
	invariant.Precondition(c.Host != "", "host must not be empty")

	cmd := c.command
	if cmd == "" {
		var err error
		cmd, err = BootstrapCommand(c.osArch())
		if err != nil {
			return nil, err
		}
	}

	config := &ssh.ClientConfig{
		User:            c.user(),
		Auth:            c.authMethods(),
		HostKeyCallback: c.hostKeyCallback(),
	}

	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.port()))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, ferrors.Connection(c.Host, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		return nil, ferrors.Connection(c.Host, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	session, err := client.NewSession()
	if err != nil {
		_ = client.Close()
		return nil, ferrors.Connection(c.Host, err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, ferrors.Connection(c.Host, err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, ferrors.Connection(c.Host, err)
	}
	var stderr bytes.Buffer
	session.Stderr = &stderr

	if err := session.Start(cmd); err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, ferrors.Connection(c.Host, err)
	}

	return &sshTunnel{session: session, client: client, stdin: stdin, stdout: stdout, stderr: &stderr}, nil
}

func (c SSHConnector) authMethods() []ssh.AuthMethod {
	var methods []ssh.AuthMethod
	switch {
	case c.Signer != nil:
		methods = append(methods, ssh.PublicKeys(c.Signer))
	case c.KeyPath != "":
		if data, err := os.ReadFile(c.KeyPath); err == nil {
			if signer, err := ssh.ParsePrivateKey(data); err == nil {
				methods = append(methods, ssh.PublicKeys(signer))
			}
		}
	}
	if len(methods) == 0 {
		if auth := sshAgentAuth(); auth != nil {
			methods = append(methods, auth)
		}
	}
	return methods
}

func (c SSHConnector) hostKeyCallback() ssh.HostKeyCallback {
	if !c.StrictHostKey {
		return ssh.InsecureIgnoreHostKey()
	}
	path := c.KnownHostsPath
	if path == "" {
		path = os.ExpandEnv("$HOME/.ssh/known_hosts")
	}
	callback, err := loadKnownHosts(path)
	if err != nil {
		return ssh.InsecureIgnoreHostKey()
	}
	return callback
}

func loadKnownHosts(path string) (ssh.HostKeyCallback, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	known := make(map[string]ssh.PublicKey)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pubKey, _, _, _, err := ssh.ParseAuthorizedKey([]byte(fields[1] + " " + fields[2]))
		if err != nil {
			continue
		}
		known[fields[0]+":"+pubKey.Type()] = pubKey
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		known, ok := known[hostname+":"+key.Type()]
		if !ok {
			return fmt.Errorf("host key not found in known_hosts: %s", hostname)
		}
		if !bytes.Equal(key.Marshal(), known.Marshal()) {
			return fmt.Errorf("host key mismatch for %s", hostname)
		}
		return nil
	}, nil
}

func sshAgentAuth() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}
	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil
	}
	client := agent.NewClient(conn)
	return ssh.PublicKeysCallback(client.Signers)
}

// sshTunnel adapts a single ssh.Session's stdin/stdout pipes to Tunnel.
type sshTunnel struct {
	session *ssh.Session
	client  *ssh.Client
	stdin   interface {
		Write([]byte) (int, error)
		Close() error
	}
	stdout interface{ Read([]byte) (int, error) }
	stderr *bytes.Buffer
}

func (t *sshTunnel) Read(p []byte) (int, error)  { return t.stdout.Read(p) }
func (t *sshTunnel) Write(p []byte) (int, error) { return t.stdin.Write(p) }

func (t *sshTunnel) Close() error {
	_ = t.stdin.Close()
	_ = t.session.Close()
	return t.client.Close()
}
