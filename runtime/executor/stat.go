package executor

import (
	"io/fs"
	"os"
	"os/user"
	"strconv"
	"syscall"

	"github.com/aledsdavies/fora/core/wire"
)

// handleStat probes path, optionally following the final symlink and
// computing a content hash, per spec.md §4.1.
func (e *Executor) handleStat(p wire.Stat) error {
	var (
		info fs.FileInfo
		err  error
	)
	if p.FollowLinks {
		info, err = os.Stat(p.Path)
	} else {
		info, err = os.Lstat(p.Path)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return e.replyInvalidField("path", "no such file or directory")
		}
		return e.replyOSErr(err)
	}

	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return e.replyOSErr(errUnsupportedPlatform)
	}

	ownerName := strconv.FormatUint(uint64(sys.Uid), 10)
	if u, err := user.LookupId(ownerName); err == nil {
		ownerName = u.Username
	}
	groupName := strconv.FormatUint(uint64(sys.Gid), 10)
	if g, err := user.LookupGroupId(groupName); err == nil {
		groupName = g.Name
	}

	var sha []byte
	fileType := classify(info.Mode())
	if p.Sha512Sum && fileType == "file" {
		content, err := os.ReadFile(p.Path)
		if err != nil {
			return e.replyOSErr(err)
		}
		sha = hashContent(content)
	}

	return wire.WritePacket(e.w, wire.StatResult{
		Type:      fileType,
		Mode:      uint64(info.Mode().Perm()),
		Owner:     ownerName,
		Group:     groupName,
		Size:      uint64(info.Size()),
		Mtime:     uint64(sys.Mtim.Nano()),
		Ctime:     uint64(sys.Ctim.Nano()),
		Sha512Sum: sha,
	})
}

func classify(mode fs.FileMode) string {
	switch {
	case mode&fs.ModeSymlink != 0:
		return "link"
	case mode.IsDir():
		return "dir"
	case mode&fs.ModeCharDevice != 0:
		return "chr"
	case mode&fs.ModeDevice != 0:
		return "blk"
	case mode&fs.ModeNamedPipe != 0:
		return "fifo"
	case mode&fs.ModeSocket != 0:
		return "sock"
	case mode.IsRegular():
		return "file"
	default:
		return "other"
	}
}
