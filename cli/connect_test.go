package cli

import (
	"testing"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/runtime/connector"
)

func TestConnectHostLocal(t *testing.T) {
	c, err := connectHost(types.Host{Name: "ctl", URL: "local:"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.(connector.LocalConnector); !ok {
		t.Fatalf("got %T, want connector.LocalConnector", c)
	}
}

func TestConnectHostSSHWithUserAndPort(t *testing.T) {
	c, err := connectHost(types.Host{Name: "web1", URL: "ssh://deploy@web1.example.com:2222"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ssh, ok := c.(connector.SSHConnector)
	if !ok {
		t.Fatalf("got %T, want connector.SSHConnector", c)
	}
	if ssh.Host != "web1.example.com" || ssh.User != "deploy" || ssh.Port != 2222 {
		t.Fatalf("got %+v", ssh)
	}
}

func TestConnectHostBareSSHShorthand(t *testing.T) {
	c, err := connectHost(types.Host{Name: "web1", URL: "deploy@web1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ssh, ok := c.(connector.SSHConnector)
	if !ok {
		t.Fatalf("got %T, want connector.SSHConnector", c)
	}
	if ssh.Host != "web1" || ssh.User != "deploy" {
		t.Fatalf("got %+v", ssh)
	}
}

func TestConnectHostConnectorOverrideWins(t *testing.T) {
	c, err := connectHost(types.Host{Name: "ctl", URL: "ssh://web1", ConnectorOverride: "local"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.(connector.LocalConnector); !ok {
		t.Fatalf("got %T, want connector.LocalConnector", c)
	}
}

func TestConnectHostUnknownSchemeIsUsageError(t *testing.T) {
	_, err := connectHost(types.Host{Name: "web1", URL: "ftp://web1"})
	if err == nil {
		t.Fatal("expected an error for an unrecognised scheme")
	}
}

func TestConnectHostMissingHostIsUsageError(t *testing.T) {
	_, err := connectHost(types.Host{Name: "web1", URL: "ssh://"})
	if err == nil {
		t.Fatal("expected an error for a missing ssh host")
	}
}
