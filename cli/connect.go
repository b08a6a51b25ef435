package cli

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/pkgs/ferrors"
	"github.com/aledsdavies/fora/runtime/connector"
)

// connectHost resolves the connector a host's URL (or its
// ConnectorOverride) names, per spec.md §3's "transport URL" field:
// "local:" dials a child process on the controller, anything else is
// parsed as an SSH target ("ssh://user@host:port" or bare "user@host").
func connectHost(h types.Host) (connector.Connector, error) {
	scheme := h.ConnectorOverride
	target := h.URL
	if scheme == "" {
		scheme, target = splitScheme(h.URL)
	}

	switch scheme {
	case "local":
		return connector.LocalConnector{}, nil
	case "ssh", "":
		return parseSSHTarget(target)
	default:
		return nil, ferrors.Usage("host %q: unrecognised connector scheme %q", h.Name, scheme)
	}
}

// splitScheme separates a "scheme:rest" URL into its scheme and
// remainder. A bare "user@host" (no "://") is treated as an implicit
// ssh target, per spec.md §6's inventory-argument rule.
func splitScheme(raw string) (scheme, rest string) {
	if i := strings.Index(raw, "://"); i >= 0 {
		return raw[:i], raw[i+3:]
	}
	if raw == "local:" {
		return "local", ""
	}
	return "ssh", raw
}

// parseSSHTarget parses "[user@]host[:port][/path]" into an
// SSHConnector. The path component, if any, is ignored -- fora has no
// notion of a remote working directory fixed at connect time.
func parseSSHTarget(target string) (connector.Connector, error) {
	u, err := url.Parse("ssh://" + target)
	if err != nil {
		return nil, ferrors.Usage("invalid ssh target %q: %v", target, err)
	}
	if u.Hostname() == "" {
		return nil, ferrors.Usage("invalid ssh target %q: missing host", target)
	}

	c := connector.SSHConnector{
		Host:          u.Hostname(),
		StrictHostKey: true,
	}
	if u.User != nil {
		c.User = u.User.Username()
	}
	if port := u.Port(); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, ferrors.Usage("invalid ssh target %q: bad port %q", target, port)
		}
		c.Port = p
	}
	return c, nil
}
