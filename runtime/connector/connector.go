package connector

import (
	"context"
	"io"
)

// Tunnel is the raw bidirectional byte stream to a bootstrapped remote
// executor: core/wire's Reader/Writer are layered directly on top of
// it. Closing it must terminate the remote process.
type Tunnel interface {
	io.Reader
	io.Writer
	Close() error
}

// Connector opens a Tunnel to one host. Exactly one Tunnel is open per
// Connection at a time (spec §5: one remote executor child per host).
type Connector interface {
	Dial(ctx context.Context) (Tunnel, error)
}
