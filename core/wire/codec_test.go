package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func roundTrip(t *testing.T, p Packet) Packet {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WritePacket(NewWriter(&buf), p))
	got, err := ReadPacket(NewReader(&buf))
	require.NoError(t, err)
	return got
}

func TestRoundTripAllPacketTypes(t *testing.T) {
	cases := []Packet{
		CheckAlive{ProtocolVersion: "v1.0.0"},
		Ack{ProtocolVersion: "v1.0.0"},
		Exit{},
		Ok{},
		OSError{Errno: 2, Strerror: "No such file or directory", Msg: "stat failed"},
		InvalidField{Field: "mode", ErrorMessage: "not octal"},
		ProcessRun{
			Command:       []string{"/bin/sh", "-c", "echo hi"},
			Stdin:         []byte("payload"),
			CaptureOutput: true,
			User:          strp("root"),
			Group:         strp("wheel"),
			Umask:         strp("022"),
			Cwd:           strp("/tmp"),
		},
		ProcessRun{Command: []string{"true"}, CaptureOutput: false},
		ProcessCompleted{Stdout: []byte("out"), Stderr: nil, ReturnCode: 0},
		ProcessError{Message: "fork failed"},
		Stat{Path: "/etc/passwd", FollowLinks: true, Sha512Sum: true},
		StatResult{
			Type: "file", Mode: 0o644, Owner: "root", Group: "root",
			Size: 1024, Mtime: 1690000000, Ctime: 1690000000,
			Sha512Sum: []byte{0xde, 0xad, 0xbe, 0xef},
		},
		ResolveUser{Name: strp("deploy")},
		ResolveUser{Name: nil},
		ResolveGroup{Name: strp("wheel")},
		ResolveResult{Value: "1000"},
		QueryUser{Name: "deploy"},
		QueryGroup{Name: "wheel"},
		UserEntry{
			Name: "deploy", UID: 1000, PrimaryGroupName: "deploy", GID: 1000,
			SupplementaryGroups: []string{"wheel", "docker"},
			PasswordHash:        "x", Gecos: "", Home: "/home/deploy", Shell: "/bin/bash",
		},
		GroupEntry{Name: "wheel", GID: 10, Members: []string{"root", "deploy"}},
		Upload{Path: "/etc/foo.conf", Content: []byte("data"), Mode: strp("644")},
		Download{Path: "/etc/foo.conf"},
		DownloadResult{Content: []byte("data")},
	}

	for _, p := range cases {
		got := roundTrip(t, p)
		assert.Equal(t, p, got, "round trip mismatch for %T", p)
	}
}

func TestReadPacketRejectsUnknownID(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteU32(9999)
	require.NoError(t, w.Err())

	_, err := ReadPacket(NewReader(&buf))
	require.Error(t, err)
}

func TestNegotiateVersionAcceptsSameMajor(t *testing.T) {
	assert.NoError(t, NegotiateVersion("v1.2.3"))
}

func TestNegotiateVersionRejectsMajorMismatch(t *testing.T) {
	assert.Error(t, NegotiateVersion("v2.0.0"))
}

func TestNegotiateVersionRejectsMalformed(t *testing.T) {
	assert.Error(t, NegotiateVersion("not-a-version"))
}
