package executor

import (
	"os"
	"strconv"

	"github.com/aledsdavies/fora/core/wire"
)

// defaultUploadMode is applied when Upload carries no Mode override,
// per spec.md §4.1.
const defaultUploadMode = "600"

// handleUpload writes content to path, chmods to the requested mode
// (default "600"), then chowns to owner:group if either is given. No
// temp-file rename dance -- atomicity is not a core guarantee.
func (e *Executor) handleUpload(p wire.Upload) error {
	if err := os.WriteFile(p.Path, p.Content, 0o600); err != nil {
		return e.replyOSErr(err)
	}

	mode := defaultUploadMode
	if p.Mode != nil {
		mode = *p.Mode
	}
	perm, err := parseOctalMode(mode)
	if err != nil {
		return e.replyInvalidField("mode", err.Error())
	}
	if err := os.Chmod(p.Path, perm); err != nil {
		return e.replyOSErr(err)
	}

	if p.Owner != nil || p.Group != nil {
		uid, gid := -1, -1
		if p.Owner != nil {
			u, err := lookupUser(*p.Owner)
			if err != nil {
				return e.replyInvalidField("owner", "no such user")
			}
			uid, _ = strconv.Atoi(u.Uid)
		}
		if p.Group != nil {
			g, err := lookupGroup(*p.Group)
			if err != nil {
				return e.replyInvalidField("group", "no such group")
			}
			gid, _ = strconv.Atoi(g.Gid)
		}
		if err := os.Chown(p.Path, uid, gid); err != nil {
			return e.replyOSErr(err)
		}
	}

	return wire.WritePacket(e.w, wire.Ok{})
}

// handleDownload reads path's whole content; a nonexistent file is
// InvalidField("path", ...), per spec.md §4.1.
func (e *Executor) handleDownload(p wire.Download) error {
	content, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return e.replyInvalidField("path", "no such file or directory")
		}
		return e.replyOSErr(err)
	}
	return wire.WritePacket(e.w, wire.DownloadResult{Content: content})
}
