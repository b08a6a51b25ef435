// Package connector dials a transport (SSH or local subprocess) and
// bootstraps the remote executor (C2) on the far end, handing back a
// raw byte-stream tunnel the core/wire codec can speak over. Grounded
// on the teacher's core/decorator session transports, restructured
// around one persistent command instead of one SSH session per
// invocation, since the tunnel protocol needs a single long-lived
// stdin/stdout pipe.
package connector

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/aledsdavies/fora/pkgs/ferrors"
)

// The original fora bootstraps its remote executor by piping its
// Python source straight into `python3 -c`. Go has no ambient
// interpreter on the target, so each supported os/arch gets a
// pre-built, statically linked executor binary, embedded here
// gzip+base64-encoded and decoded into a temp file on the remote
// before being exec'd -- see embedded/README.md for how these are
// produced.
var (
	//go:embed embedded/linux_amd64.b64
	executorLinuxAMD64 string
	//go:embed embedded/linux_arm64.b64
	executorLinuxARM64 string
)

func executorBlob(osArch string) (string, error) {
	switch osArch {
	case "linux/amd64":
		return executorLinuxAMD64, nil
	case "linux/arm64":
		return executorLinuxARM64, nil
	default:
		return "", ferrors.Connection("", fmt.Errorf("no embedded executor for target %q", osArch))
	}
}

// bootstrapMarker delimits the inline base64 payload in the generated
// shell heredoc; chosen unlikely to collide with real output.
const bootstrapMarker = "__FORA_EXECUTOR_EOF__"

// BootstrapCommand returns the `sh -c '...'` one-liner that decodes
// the embedded executor for osArch into a private temp file, makes it
// executable, and execs it -- replacing the shell so the process that
// remains owns the connection's stdin/stdout for the tunnel protocol.
// The temp file is not removed afterwards.
func BootstrapCommand(osArch string) (string, error) {
	blob, err := executorBlob(osArch)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(blob) == "" {
		return "", ferrors.Connection("", fmt.Errorf("embedded executor for %q is an unpopulated placeholder; run `make embed-executors`", osArch))
	}

	var b strings.Builder
	b.WriteString("set -e; ")
	b.WriteString(`t=$(mktemp); `)
	fmt.Fprintf(&b, "base64 -d > \"$t.gz\" <<'%s'\n", bootstrapMarker)
	b.WriteString(blob)
	if !strings.HasSuffix(blob, "\n") {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s\n", bootstrapMarker)
	b.WriteString(`gunzip -f "$t.gz"; chmod 700 "$t"; exec "$t"`)

	return "sh -c " + shellQuote(b.String()), nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
