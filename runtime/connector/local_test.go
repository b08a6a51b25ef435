package connector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalConnectorDialRoundTripsBytes(t *testing.T) {
	conn := LocalConnector{ExecutorPath: "cat", Args: []string{}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tunnel, err := conn.Dial(ctx)
	require.NoError(t, err)
	defer tunnel.Close()

	_, err = tunnel.Write([]byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 4)
	_, err = tunnel.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))
}

func TestLocalConnectorDialFailsOnMissingBinary(t *testing.T) {
	conn := LocalConnector{ExecutorPath: "/nonexistent/fora-executor-binary"}
	_, err := conn.Dial(context.Background())
	require.Error(t, err)
}
