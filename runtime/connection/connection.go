// Package connection implements C4: a Connection owns one Connector
// plus the resolved base settings for that host, and exposes one
// method per remote-executor primitive (run, stat, resolve_user,
// resolve_group, query_user, query_group, upload, download), each of
// which round-trips one request through the tunnel codec with the
// options it is given. The primitives do not merge those options with
// the script's effective defaults; runtime/ops merges mode/owner/group
// overrides (Context.withDefaults) before calling them.
package connection

import (
	"context"
	"sync"

	"github.com/aledsdavies/fora/core/invariant"
	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/core/wire"
	"github.com/aledsdavies/fora/pkgs/ferrors"
	"github.com/aledsdavies/fora/runtime/connector"
)

// Connection is a single open channel to one host's remote executor.
type Connection struct {
	Host string

	mu       sync.Mutex
	conn     connector.Connector
	tunnel   connector.Tunnel
	reader   *wire.Reader
	writer   *wire.Writer
	settings types.RemoteSettings
}

// New wraps a not-yet-opened Connector for the named host.
func New(host string, c connector.Connector) *Connection {
	invariant.Precondition(host != "", "host must not be empty")
	invariant.NotNil(c, "c")
	return &Connection{Host: host, conn: c}
}

// Open spawns the remote executor, performs the CheckAlive/Ack
// handshake, and resolves the identity the executor actually runs as
// into base_settings (spec §4.3): on any failure before Ack, the
// subprocess is forcibly torn down.
func (c *Connection) Open(ctx context.Context) error {
	tunnel, err := c.conn.Dial(ctx)
	if err != nil {
		return err
	}

	reader := wire.NewReader(tunnel)
	writer := wire.NewWriter(tunnel)

	if err := wire.WritePacket(writer, wire.CheckAlive{ProtocolVersion: wire.ProtocolVersion}); err != nil {
		_ = tunnel.Close()
		return ferrors.Connection(c.Host, err)
	}
	resp, err := wire.ReadPacket(reader)
	if err != nil {
		_ = tunnel.Close()
		return ferrors.Connection(c.Host, err)
	}
	ack, ok := resp.(wire.Ack)
	if !ok {
		_ = tunnel.Close()
		return ferrors.Connection(c.Host, ferrors.Protocol("expected Ack, got %T", resp))
	}
	if err := wire.NegotiateVersion(ack.ProtocolVersion); err != nil {
		_ = tunnel.Close()
		return ferrors.Connection(c.Host, err)
	}

	c.mu.Lock()
	c.tunnel, c.reader, c.writer = tunnel, reader, writer
	c.mu.Unlock()

	user, err := c.ResolveUser(nil)
	if err != nil {
		_ = c.Close()
		return err
	}
	group, err := c.ResolveGroup(nil)
	if err != nil {
		_ = c.Close()
		return err
	}

	c.mu.Lock()
	c.settings = types.RemoteSettings{
		AsUser:  types.StringField(user),
		AsGroup: types.StringField(group),
		Owner:   types.StringField(user),
		Group:   types.StringField(group),
	}
	c.mu.Unlock()

	return nil
}

// Close sends Exit, then tears the tunnel down.
func (c *Connection) Close() error {
	c.mu.Lock()
	tunnel, writer := c.tunnel, c.writer
	c.tunnel, c.reader, c.writer = nil, nil, nil
	c.mu.Unlock()

	if tunnel == nil {
		return nil
	}
	if writer != nil {
		_ = wire.WritePacket(writer, wire.Exit{})
	}
	return tunnel.Close()
}

// BaseSettings returns the identity resolved at Open time.
func (c *Connection) BaseSettings() types.RemoteSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// roundTrip sends req and decodes exactly one response packet,
// translating OSError/InvalidField into typed errors (spec §4.1
// request/response contract).
func (c *Connection) roundTrip(req wire.Packet) (wire.Packet, error) {
	c.mu.Lock()
	writer, reader := c.writer, c.reader
	c.mu.Unlock()
	if writer == nil || reader == nil {
		return nil, ferrors.Connection(c.Host, ferrors.Protocol("connection is not open"))
	}

	if err := wire.WritePacket(writer, req); err != nil {
		return nil, ferrors.Connection(c.Host, err)
	}
	resp, err := wire.ReadPacket(reader)
	if err != nil {
		return nil, ferrors.Connection(c.Host, err)
	}

	switch r := resp.(type) {
	case wire.OSError:
		return nil, ferrors.OS(r.Errno, r.Strerror, r.Msg)
	case wire.InvalidField:
		return nil, ferrors.InvalidField(r.Field, r.ErrorMessage)
	default:
		return resp, nil
	}
}

// ResolveDefaults validates a candidate RemoteSettings: octal masks,
// cwd existence/type, and that as_user/as_group resolve on the remote
// host. Owner and group are not checked, and the settings are returned
// as given, without replacing names by their canonical form.
func (c *Connection) ResolveDefaults(s types.RemoteSettings) (types.RemoteSettings, error) {
	if err := s.Validate(); err != nil {
		return types.RemoteSettings{}, err
	}
	if s.Cwd != nil {
		st, err := c.Stat(*s.Cwd, false, false)
		if err != nil {
			return types.RemoteSettings{}, err
		}
		if st == nil || st.Type != types.FileTypeDir {
			return types.RemoteSettings{}, ferrors.InvalidField("cwd", "path does not exist or is not a directory: "+*s.Cwd)
		}
	}
	if s.AsUser != nil {
		if _, err := c.ResolveUser(s.AsUser); err != nil {
			return types.RemoteSettings{}, err
		}
	}
	if s.AsGroup != nil {
		if _, err := c.ResolveGroup(s.AsGroup); err != nil {
			return types.RemoteSettings{}, err
		}
	}
	return s, nil
}
