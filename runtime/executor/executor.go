// Package executor implements C2: the remote-side program bootstrapped
// onto each target. It reads packets from stdin in a loop, dispatches
// each to a handler performing the local primitive (process execution,
// stat, upload/download, identity resolution/lookup), and writes
// exactly one response packet per request, per spec.md §4.1. Standard
// error is reserved for log lines; standard out/in carry the wire
// protocol exclusively.
package executor

import (
	"crypto/sha512"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/aledsdavies/fora/core/wire"
	"github.com/aledsdavies/fora/internal/logging"
)

// defaultUmask is the safe default the executor sets on startup
// (spec.md §4.1 step 1), overridden per ProcessRun when requested.
const defaultUmask = 0o077

var errUnsupportedPlatform = errors.New("executor: unsupported platform (expected a unix Stat_t)")

// Executor serves the tunnel protocol over a single reader/writer
// pair, normally stdin/stdout. Its logger always writes to stderr,
// never to the tunnel itself (spec.md §4.1).
type Executor struct {
	r   *wire.Reader
	w   *wire.Writer
	log zerolog.Logger
}

// New wraps r/w (typically os.Stdin/os.Stdout) as a protocol server.
func New(r io.Reader, w io.Writer) *Executor {
	return &Executor{r: wire.NewReader(r), w: wire.NewWriter(w), log: logging.Remote()}
}

// Serve sets the process umask, then dispatches packets until Exit or
// EOF. Returns nil on either clean shutdown path.
func (e *Executor) Serve() error {
	syscall.Umask(defaultUmask)
	e.log.Debug().Msg("executor started")

	for {
		pkt, err := wire.ReadPacket(e.r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch p := pkt.(type) {
		case wire.CheckAlive:
			err = wire.WritePacket(e.w, wire.Ack{ProtocolVersion: wire.ProtocolVersion})
		case wire.Exit:
			e.log.Debug().Msg("executor exiting")
			return nil
		case wire.ProcessRun:
			err = e.handleProcessRun(p)
		case wire.Stat:
			err = e.handleStat(p)
		case wire.ResolveUser:
			err = e.handleResolveUser(p)
		case wire.ResolveGroup:
			err = e.handleResolveGroup(p)
		case wire.QueryUser:
			err = e.handleQueryUser(p)
		case wire.QueryGroup:
			err = e.handleQueryGroup(p)
		case wire.Upload:
			err = e.handleUpload(p)
		case wire.Download:
			err = e.handleDownload(p)
		default:
			e.log.Warn().Str("packet", fmt.Sprintf("%T", pkt)).Msg("unhandled packet type")
			err = wire.WritePacket(e.w, wire.OSError{Msg: fmt.Sprintf("unhandled packet %T", pkt)})
		}
		if err != nil {
			e.log.Error().Err(err).Msg("executor dispatch failed")
			return err
		}
	}
}

// replyOSErr reports an uncaught OS-level error and lets the executor
// keep serving (spec.md §4.1 "OSError path").
func (e *Executor) replyOSErr(err error) error {
	errno, strerror := errnoOf(err)
	return wire.WritePacket(e.w, wire.OSError{Errno: errno, Strerror: strerror, Msg: err.Error()})
}

func (e *Executor) replyInvalidField(field, message string) error {
	return wire.WritePacket(e.w, wire.InvalidField{Field: field, ErrorMessage: message})
}

func errnoOf(err error) (int64, string) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int64(errno), errno.Error()
	}
	return 0, err.Error()
}

func lookupUser(name string) (*user.User, error) {
	return user.Lookup(name)
}

func lookupGroup(name string) (*user.Group, error) {
	return user.LookupGroup(name)
}

func parseOctalMode(s string) (os.FileMode, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, err
	}
	return os.FileMode(v), nil
}

func hashContent(content []byte) []byte {
	sum := sha512.Sum512(content)
	return sum[:]
}
