package connector

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net"
	"os/exec"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
)

// testSSHServer is a minimal in-process SSH server used to exercise
// SSHConnector.Dial without a real remote host. Grounded on the
// teacher's core/decorator.SSHTestServer, adapted to also forward the
// channel as the spawned command's stdin -- our tunnel protocol needs
// a bidirectional pipe, unlike the teacher's fire-and-forget exec.
type testSSHServer struct {
	addr      string
	clientKey ssh.Signer
	listener  net.Listener
	wg        sync.WaitGroup
}

func startTestSSHServer(t *testing.T) *testSSHServer {
	t.Helper()

	_, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Skipf("generate host key: %v", err)
	}
	hostKey, err := ssh.NewSignerFromKey(hostPriv)
	if err != nil {
		t.Skipf("host signer: %v", err)
	}

	clientPub, clientPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Skipf("generate client key: %v", err)
	}
	clientKey, err := ssh.NewSignerFromKey(clientPriv)
	if err != nil {
		t.Skipf("client signer: %v", err)
	}
	clientSSHPub, err := ssh.NewPublicKey(clientPub)
	if err != nil {
		t.Skipf("client pubkey: %v", err)
	}

	config := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if bytes.Equal(key.Marshal(), clientSSHPub.Marshal()) {
				return &ssh.Permissions{}, nil
			}
			return nil, fmt.Errorf("unknown public key")
		},
	}
	config.AddHostKey(hostKey)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("listen: %v", err)
	}

	srv := &testSSHServer{addr: listener.Addr().String(), clientKey: clientKey, listener: listener}
	srv.wg.Add(1)
	go srv.acceptLoop(config)
	t.Cleanup(func() { _ = listener.Close() })
	return srv
}

func (s *testSSHServer) acceptLoop(config *ssh.ServerConfig) {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.handleConn(conn, config)
	}
}

func (s *testSSHServer) handleConn(netConn net.Conn, config *ssh.ServerConfig) {
	defer s.wg.Done()
	defer func() { _ = netConn.Close() }()

	sshConn, chans, reqs, err := ssh.NewServerConn(netConn, config)
	if err != nil {
		return
	}
	defer func() { _ = sshConn.Close() }()
	go ssh.DiscardRequests(reqs)

	for ch := range chans {
		s.wg.Add(1)
		go s.handleChannel(ch)
	}
}

func (s *testSSHServer) handleChannel(newChannel ssh.NewChannel) {
	defer s.wg.Done()
	if newChannel.ChannelType() != "session" {
		_ = newChannel.Reject(ssh.UnknownChannelType, "unknown channel type")
		return
	}
	channel, requests, err := newChannel.Accept()
	if err != nil {
		return
	}
	defer func() { _ = channel.Close() }()

	for req := range requests {
		switch req.Type {
		case "exec":
			s.handleExec(channel, req)
		default:
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
		}
	}
}

func (s *testSSHServer) handleExec(channel ssh.Channel, req *ssh.Request) {
	var execReq struct{ Command string }
	if err := ssh.Unmarshal(req.Payload, &execReq); err != nil {
		if req.WantReply {
			_ = req.Reply(false, nil)
		}
		return
	}
	if req.WantReply {
		_ = req.Reply(true, nil)
	}

	cmd := exec.Command("sh", "-c", execReq.Command)
	cmd.Stdin = channel
	cmd.Stdout = channel
	cmd.Stderr = channel.Stderr()

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = 1
		}
	}
	status := struct{ Status uint32 }{uint32(exitCode)}
	_, _ = channel.SendRequest("exit-status", false, ssh.Marshal(&status))
}
