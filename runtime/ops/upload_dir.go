package ops

import (
	"os"
	"path"
	"path/filepath"

	"github.com/aledsdavies/fora/core/types"
)

// UploadDirOpts are the optional parameters of UploadDir, grounded on
// operations/files.py's `upload_dir`.
type UploadDirOpts struct {
	DirMode  *string
	FileMode *string
	Owner    *string
	Group    *string
	Name     string
	NoCheck  bool
}

// UploadDir uploads the local directory src to dest, recursively
// mirroring its directories (via Directory) and files (via Upload).
// Unrelated files already present under dest are left untouched. If
// dest ends in "/", src becomes a child of dest; otherwise dest names
// the uploaded directory itself.
func (c *Context) UploadDir(src, dest string, opts UploadDirOpts) (*types.OperationResult, error) {
	if err := checkAbsolutePath(dest); err != nil {
		return nil, err
	}
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return nil, errInvalidSrcDir(src)
	}

	if dest[len(dest)-1] == '/' {
		dest = path.Join(dest, filepath.Base(src))
	}

	nested := make(map[string]*types.OperationResult)
	changed := false

	dirResult, err := c.Directory(dest, DirectoryOpts{Present: true, Mode: opts.DirMode, Owner: opts.Owner, Group: opts.Group, NoCheck: opts.NoCheck})
	if err != nil {
		return nil, err
	}
	nested[dest] = dirResult
	changed = changed || dirResult.Changed

	err = filepath.Walk(src, func(p string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == src {
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		dpath := path.Join(dest, filepath.ToSlash(rel))

		if fi.IsDir() {
			res, err := c.Directory(dpath, DirectoryOpts{Present: true, Mode: opts.DirMode, Owner: opts.Owner, Group: opts.Group, NoCheck: opts.NoCheck})
			if err != nil {
				return err
			}
			nested[dpath] = res
			changed = changed || res.Changed
			return nil
		}
		if fi.Mode().IsRegular() {
			res, err := c.Upload(p, dpath, UploadOpts{Mode: opts.FileMode, Owner: opts.Owner, Group: opts.Group, NoCheck: opts.NoCheck})
			if err != nil {
				return err
			}
			nested[dpath] = res
			changed = changed || res.Changed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &types.OperationResult{
		Kind:        "upload_dir",
		Label:       opts.Name,
		Description: dest,
		Success:     true,
		Changed:     changed,
		HasNested:   true,
		Nested:      nested,
	}, nil
}
