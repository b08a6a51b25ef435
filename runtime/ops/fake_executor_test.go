package ops

import (
	"context"
	"crypto/sha512"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/core/wire"
	"github.com/aledsdavies/fora/runtime/connection"
	"github.com/aledsdavies/fora/runtime/connector"
	"github.com/aledsdavies/fora/runtime/operation"
)

// fakeFile is one in-memory filesystem entry served by fakeHost,
// standing in for a bootstrapped executor's view of the remote
// filesystem across a single test.
type fakeFile struct {
	isDir   bool
	isLink  bool
	target  string // symlink target, if isLink
	content []byte
	mode    string
	owner   string
	group   string
}

// serviceState tracks one systemd unit's simulated run/boot state.
type serviceState struct {
	active  bool
	enabled bool
}

// fakeHost is a minimal in-process remote host: a filesystem, a user
// database and a group database, plus just enough command
// interpretation (mkdir/chmod/chown/touch/rm/ln/readlink/cp,
// useradd/usermod/userdel, groupadd/groupmod/groupdel, systemctl,
// package manager probes, and git) to drive the runtime/ops tests
// end-to-end through the real tunnel codec.
type fakeHost struct {
	files  map[string]*fakeFile
	users  map[string]*types.UserEntry
	groups map[string]*types.GroupEntry

	services map[string]*serviceState

	pkgManagerCmd string          // "pacman", "apt-get", "emerge" or "" (none available)
	installed     map[string]bool // installed packages, keyed by name

	gitRemotes map[string]string // repoPath -> remote url
	gitCommits map[string]string // repoPath or url -> commit sha
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		files:      map[string]*fakeFile{},
		users:      map[string]*types.UserEntry{},
		groups:     map[string]*types.GroupEntry{},
		services:   map[string]*serviceState{},
		installed:  map[string]bool{},
		gitRemotes: map[string]string{},
		gitCommits: map[string]string{},
	}
}

func (h *fakeHost) serve(t *testing.T, conn net.Conn) {
	t.Helper()
	r := wire.NewReader(conn)
	w := wire.NewWriter(conn)
	for {
		pkt, err := wire.ReadPacket(r)
		if err != nil {
			return
		}
		switch p := pkt.(type) {
		case wire.CheckAlive:
			_ = wire.WritePacket(w, wire.Ack{ProtocolVersion: wire.ProtocolVersion})
		case wire.ResolveUser:
			_ = wire.WritePacket(w, wire.ResolveResult{Value: "deploy"})
		case wire.ResolveGroup:
			_ = wire.WritePacket(w, wire.ResolveResult{Value: "deploy"})
		case wire.Stat:
			f, ok := h.files[p.Path]
			if !ok {
				_ = wire.WritePacket(w, wire.InvalidField{Field: "path", ErrorMessage: "no such file"})
				continue
			}
			typ := "file"
			if f.isDir {
				typ = "dir"
			} else if f.isLink {
				typ = "link"
			}
			var sha []byte
			if p.Sha512Sum {
				sum := sha512.Sum512(f.content)
				sha = sum[:]
			}
			_ = wire.WritePacket(w, wire.StatResult{Type: typ, Mode: modeToUint(f.mode), Owner: f.owner, Group: f.group, Size: uint64(len(f.content)), Sha512Sum: sha})
		case wire.Upload:
			mode := "644"
			if p.Mode != nil {
				mode = *p.Mode
			}
			owner, group := "deploy", "deploy"
			if p.Owner != nil {
				owner = *p.Owner
			}
			if p.Group != nil {
				group = *p.Group
			}
			h.files[p.Path] = &fakeFile{content: p.Content, mode: mode, owner: owner, group: group}
			_ = wire.WritePacket(w, wire.Ok{})
		case wire.Download:
			f, ok := h.files[p.Path]
			if !ok {
				_ = wire.WritePacket(w, wire.InvalidField{Field: "path", ErrorMessage: "no such file"})
				continue
			}
			_ = wire.WritePacket(w, wire.DownloadResult{Content: f.content})
		case wire.QueryUser:
			u, ok := h.users[p.Name]
			if !ok {
				_ = wire.WritePacket(w, wire.InvalidField{Field: "name", ErrorMessage: "no such user"})
				continue
			}
			_ = wire.WritePacket(w, wire.UserEntry{
				Name: u.Name, UID: u.UID, PrimaryGroupName: u.PrimaryGroupName, GID: u.GID,
				SupplementaryGroups: u.SupplementaryGroups, PasswordHash: u.PasswordHash,
				Gecos: u.Gecos, Home: u.Home, Shell: u.Shell,
			})
		case wire.QueryGroup:
			g, ok := h.groups[p.Name]
			if !ok {
				_ = wire.WritePacket(w, wire.InvalidField{Field: "name", ErrorMessage: "no such group"})
				continue
			}
			_ = wire.WritePacket(w, wire.GroupEntry{Name: g.Name, GID: g.GID, Members: g.Members})
		case wire.ProcessRun:
			out, code := h.runCommand(p.Command)
			_ = wire.WritePacket(w, wire.ProcessCompleted{Stdout: out, ReturnCode: code})
		case wire.Exit:
			return
		default:
			_ = wire.WritePacket(w, wire.OSError{Errno: 38, Strerror: "unsupported", Msg: "unhandled packet in test fake"})
		}
	}
}

func modeToUint(mode string) uint64 {
	if mode == "" {
		return 0o644
	}
	v, err := strconv.ParseUint(mode, 8, 32)
	if err != nil {
		return 0o644
	}
	return v
}

// runCommand interprets just enough of each argv[0] to make runtime/ops
// probe/apply round trips behave like the real tool would.
func (h *fakeHost) runCommand(argv []string) ([]byte, int32) {
	if len(argv) == 0 {
		return nil, 1
	}
	switch argv[0] {
	case "mkdir":
		h.files[last(argv)] = &fakeFile{isDir: true, mode: "755", owner: "deploy", group: "deploy"}
		return nil, 0
	case "touch":
		path := last(argv)
		if _, ok := h.files[path]; !ok {
			h.files[path] = &fakeFile{mode: "644", owner: "deploy", group: "deploy"}
		}
		return nil, 0
	case "chmod":
		mode, path := argv[len(argv)-3], last(argv)
		if f, ok := h.files[path]; ok {
			f.mode = mode
		}
		return nil, 0
	case "chown":
		owner, group := splitOwnerGroup(argv[len(argv)-3])
		path := last(argv)
		if f, ok := h.files[path]; ok {
			f.owner, f.group = owner, group
		}
		return nil, 0
	case "rm":
		delete(h.files, last(argv))
		return nil, 0
	case "ln":
		target, path := argv[len(argv)-2], last(argv)
		h.files[path] = &fakeFile{isLink: true, target: target, owner: "deploy", group: "deploy"}
		return nil, 0
	case "readlink":
		path := last(argv)
		if f, ok := h.files[path]; ok && f.isLink {
			return []byte(f.target), 0
		}
		return nil, 1
	case "cp":
		src, dst := argv[len(argv)-2], last(argv)
		if f, ok := h.files[src]; ok {
			cp := *f
			h.files[dst] = &cp
		}
		return nil, 0
	case "useradd":
		return h.useradd(argv), 0
	case "usermod":
		h.usermod(argv)
		return nil, 0
	case "userdel":
		delete(h.users, last(argv))
		return nil, 0
	case "groupadd":
		return h.groupadd(argv), 0
	case "groupmod":
		h.groupmod(argv)
		return nil, 0
	case "groupdel":
		delete(h.groups, last(argv))
		return nil, 0
	case "systemctl":
		return h.systemctl(argv)
	case "command":
		name := last(argv)
		if h.pkgManagerCmd != "" && name == h.pkgManagerCmd {
			return nil, 0
		}
		return nil, 1
	case "pacman":
		return h.pacman(argv)
	case "dpkg-query":
		return h.dpkgQuery(argv)
	case "apt-get":
		return h.aptGet(argv), 0
	case "qlist":
		return h.qlist(argv)
	case "emerge":
		return h.emerge(argv), 0
	case "git":
		return h.git(argv)
	}
	return nil, 0
}

func last(argv []string) string { return argv[len(argv)-1] }

func splitOwnerGroup(s string) (string, string) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return parts[0], ""
}

func (h *fakeHost) useradd(argv []string) []byte {
	name := last(argv)
	u := &types.UserEntry{Name: name, UID: 2000, PrimaryGroupName: name, GID: 2000, Home: "/dev/null", Shell: "/sbin/nologin"}
	for i, a := range argv {
		switch a {
		case "--uid":
			n, _ := strconv.Atoi(argv[i+1])
			u.UID = uint64(n)
		case "--gid":
			u.PrimaryGroupName = argv[i+1]
		case "--groups":
			u.SupplementaryGroups = strings.Split(argv[i+1], ",")
		case "--comment":
			u.Gecos = argv[i+1]
		case "--home-dir":
			u.Home = argv[i+1]
		case "--shell":
			u.Shell = argv[i+1]
		case "--password":
			u.PasswordHash = argv[i+1]
		}
	}
	h.users[name] = u
	return nil
}

func (h *fakeHost) usermod(argv []string) {
	name := last(argv)
	u, ok := h.users[name]
	if !ok {
		return
	}
	for i, a := range argv {
		switch a {
		case "--uid":
			n, _ := strconv.Atoi(argv[i+1])
			u.UID = uint64(n)
		case "--gid":
			u.PrimaryGroupName = argv[i+1]
		case "--groups":
			if argv[i+1] == "" {
				u.SupplementaryGroups = nil
			} else {
				u.SupplementaryGroups = strings.Split(argv[i+1], ",")
			}
		case "--comment":
			u.Gecos = argv[i+1]
		case "--home":
			u.Home = argv[i+1]
		case "--shell":
			u.Shell = argv[i+1]
		case "--password":
			u.PasswordHash = argv[i+1]
		}
	}
}

func (h *fakeHost) groupadd(argv []string) []byte {
	name := last(argv)
	g := &types.GroupEntry{Name: name, GID: 3000}
	for i, a := range argv {
		if a == "--gid" {
			n, _ := strconv.Atoi(argv[i+1])
			g.GID = uint64(n)
		}
	}
	h.groups[name] = g
	return nil
}

func (h *fakeHost) groupmod(argv []string) {
	name := last(argv)
	g, ok := h.groups[name]
	if !ok {
		return
	}
	for i, a := range argv {
		if a == "--gid" {
			n, _ := strconv.Atoi(argv[i+1])
			g.GID = uint64(n)
		}
	}
}

func (h *fakeHost) systemctl(argv []string) ([]byte, int32) {
	args := argv[1:]
	if len(args) > 0 && args[0] == "--user" {
		args = args[1:]
	}
	unit := last(args)
	st, ok := h.services[unit]
	if !ok {
		st = &serviceState{}
		h.services[unit] = st
	}
	switch args[0] {
	case "show":
		prop := args[len(args)-3]
		switch prop {
		case "ActiveState":
			if st.active {
				return []byte("active"), 0
			}
			return []byte("inactive"), 0
		case "UnitFileState":
			if st.enabled {
				return []byte("enabled"), 0
			}
			return []byte("disabled"), 0
		}
	case "start", "restart":
		st.active = true
	case "stop":
		st.active = false
	case "reload":
	case "enable":
		st.enabled = true
	case "disable":
		st.enabled = false
	}
	return nil, 0
}

// trailingArgs returns every element after a "--" separator.
func trailingArgs(argv []string) []string {
	for i, a := range argv {
		if a == "--" {
			return argv[i+1:]
		}
	}
	return nil
}

func (h *fakeHost) pacman(argv []string) ([]byte, int32) {
	switch {
	case argv[1] == "-Ql":
		pkg := last(argv)
		if h.installed[pkg] {
			return nil, 0
		}
		return nil, 1
	case containsArg(argv, "-S"):
		for _, p := range trailingArgs(argv) {
			h.installed[p] = true
		}
		return nil, 0
	case containsArg(argv, "-Rns"):
		for _, p := range trailingArgs(argv) {
			delete(h.installed, p)
		}
		return nil, 0
	}
	return nil, 1
}

func (h *fakeHost) dpkgQuery(argv []string) ([]byte, int32) {
	pkg := last(argv)
	if h.installed[pkg] {
		return []byte("install ok installed"), 0
	}
	return nil, 1
}

func (h *fakeHost) aptGet(argv []string) []byte {
	switch argv[1] {
	case "install":
		for _, p := range trailingArgs(argv) {
			h.installed[p] = true
		}
	case "remove":
		for _, p := range trailingArgs(argv) {
			delete(h.installed, p)
		}
	}
	return nil
}

func (h *fakeHost) qlist(argv []string) ([]byte, int32) {
	pkg := last(argv)
	if h.installed[pkg] {
		return nil, 0
	}
	return nil, 1
}

func (h *fakeHost) emerge(argv []string) []byte {
	if containsArg(argv, "--depclean") {
		for _, p := range trailingArgs(argv) {
			delete(h.installed, p)
		}
		return nil
	}
	for _, p := range trailingArgs(argv) {
		h.installed[p] = true
	}
	return nil
}

func containsArg(argv []string, want string) bool {
	for _, a := range argv {
		if a == want {
			return true
		}
	}
	return false
}

func (h *fakeHost) git(argv []string) ([]byte, int32) {
	switch argv[1] {
	case "ls-remote":
		url := argv[len(argv)-2]
		commit := h.gitCommits[url]
		if commit == "" {
			commit = "newcommit0000000000000000000000000000"
			h.gitCommits[url] = commit
		}
		return []byte(commit + "\trefs/heads/main"), 0
	case "clone":
		url, dest := argv[len(argv)-2], last(argv)
		h.files[dest] = &fakeFile{isDir: true, mode: "755", owner: "deploy", group: "deploy"}
		h.files[dest+"/.git"] = &fakeFile{isDir: true, mode: "755", owner: "deploy", group: "deploy"}
		h.gitRemotes[dest] = url
		h.gitCommits[dest] = h.gitCommits[url]
		return nil, 0
	case "-C":
		repo := argv[2]
		switch argv[3] {
		case "rev-parse":
			return []byte(h.gitCommits[repo]), 0
		case "config":
			return []byte(h.gitRemotes[repo]), 0
		case "pull":
			h.gitCommits[repo] = h.gitCommits[h.gitRemotes[repo]]
			return nil, 0
		case "submodule":
			return nil, 0
		}
	}
	return nil, 1
}

// newTestContext wires a Context to an in-process fakeHost via
// net.Pipe, exactly mirroring connection_test.go's harness.
func newTestContext(t *testing.T, h *fakeHost) *Context {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close(); _ = server.Close() })
	go h.serve(t, server)

	conn := connection.New("test-host", pipeConnectorOps{client})
	require.NoError(t, conn.Open(context.Background()))
	t.Cleanup(func() { _ = conn.Close() })

	return &Context{
		Conn:  conn,
		Stack: operation.NewDefaultsStack(conn.BaseSettings()),
	}
}

type pipeConnectorOps struct{ conn net.Conn }

func (p pipeConnectorOps) Dial(ctx context.Context) (connector.Tunnel, error) {
	return pipeTunnelOps{p.conn}, nil
}

type pipeTunnelOps struct{ net.Conn }

func (p pipeTunnelOps) Close() error { return p.Conn.Close() }
