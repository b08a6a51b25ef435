package ops

import "github.com/aledsdavies/fora/pkgs/ferrors"

// errInvalidSrcDir reports that a local path required to be a
// directory (upload_dir's src) isn't one, or doesn't exist.
func errInvalidSrcDir(src string) error {
	return ferrors.InvalidField("src", "'"+src+"' must be a directory")
}

// checkAbsolutePath asserts path is non-empty and absolute, grounded on
// operations/utils.py's check_absolute_path.
func checkAbsolutePath(path string) error {
	if path == "" {
		return ferrors.InvalidField("path", "path must be non-empty")
	}
	if path[0] != '/' {
		return ferrors.InvalidField("path", "path must be absolute")
	}
	return nil
}
