package types

import (
	"strconv"

	"github.com/aledsdavies/fora/pkgs/ferrors"
)

// RemoteSettings holds the eight optional scoped defaults that overlay
// each other on the per-script defaults stack: as_user, as_group, owner,
// group, file_mode, dir_mode, umask, cwd. Every field is a pointer so a
// nil field is transparent to overlaying (RemoteSettings.Overlay below).
type RemoteSettings struct {
	AsUser   *string
	AsGroup  *string
	Owner    *string
	Group    *string
	FileMode *string
	DirMode  *string
	Umask    *string
	Cwd      *string
}

// Overlay returns a new RemoteSettings where every field of b that is
// non-nil replaces the corresponding field of a; nil fields of b leave
// a's value untouched. This is the single fold operation the defaults
// stack is built from (spec invariant: overlay(a,b).f == b.f if set else a.f).
func (a RemoteSettings) Overlay(b RemoteSettings) RemoteSettings {
	return RemoteSettings{
		AsUser:   firstNonNil(b.AsUser, a.AsUser),
		AsGroup:  firstNonNil(b.AsGroup, a.AsGroup),
		Owner:    firstNonNil(b.Owner, a.Owner),
		Group:    firstNonNil(b.Group, a.Group),
		FileMode: firstNonNil(b.FileMode, a.FileMode),
		DirMode:  firstNonNil(b.DirMode, a.DirMode),
		Umask:    firstNonNil(b.Umask, a.Umask),
		Cwd:      firstNonNil(b.Cwd, a.Cwd),
	}
}

func firstNonNil(a, b *string) *string {
	if a != nil {
		return a
	}
	return b
}

// Validate checks that any present octal fields (FileMode, DirMode,
// Umask) actually parse as octal. Cwd existence/type is validated by
// the connection, which has to round-trip to the remote to check it.
func (a RemoteSettings) Validate() error {
	for name, v := range map[string]*string{
		"file_mode": a.FileMode,
		"dir_mode":  a.DirMode,
		"umask":     a.Umask,
	} {
		if v == nil {
			continue
		}
		if _, err := ParseOctal(*v); err != nil {
			return ferrors.InvalidField(name, err.Error())
		}
	}
	return nil
}

// ParseOctal parses a canonical octal mode/umask string ("644", "700",
// "077") into its numeric value. Non-octal input fails fast.
func ParseOctal(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, ferrors.InvalidField("mode", "invalid value '"+s+"': must be in octal format")
	}
	return uint32(v), nil
}

// FormatOctal renders a permission bitmask (as reported by a remote
// Stat, which carries mode on the wire as a plain integer) as the
// canonical octal string RemoteSettings and StatResult use elsewhere,
// e.g. 0644 -> "644".
func FormatOctal(mode uint64) string {
	return strconv.FormatUint(mode&0o7777, 8)
}

func strPtr(s string) *string { return &s }

// StringField returns a *string, or nil for the empty string, which is
// the canonical way operations build ad-hoc RemoteSettings overrides.
func StringField(s string) *string {
	if s == "" {
		return nil
	}
	return strPtr(s)
}
