package ops

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/pkgs/ferrors"
	"github.com/aledsdavies/fora/runtime/connection"
	"github.com/aledsdavies/fora/runtime/operation"
)

// LineOpts are the optional parameters of Line, grounded on
// operations/files.py's `line`.
type LineOpts struct {
	Present          bool
	Regex            *string
	IgnoreWhitespace bool
	// Backup, if non-empty, copies the original file to a sibling path
	// before rewriting it. BackupAuto requests the default
	// ".{RFC3339}.bak" suffix used when Python's `backup=True` is given
	// without an explicit filename.
	Backup     string
	BackupAuto bool
	Name       string
	NoCheck    bool
}

func NewLineOpts() LineOpts { return LineOpts{Present: true, IgnoreWhitespace: true} }

// Line ensures a single line is present in (or absent from) the file
// at path. New lines are appended to the end of the file. A missing
// file is created with the current default file_mode/owner/group.
func (c *Context) Line(path, line string, opts LineOpts) (*types.OperationResult, error) {
	if err := checkAbsolutePath(path); err != nil {
		return nil, err
	}

	var re *regexp.Regexp
	if opts.Regex != nil {
		var err error
		re, err = regexp.Compile(*opts.Regex)
		if err != nil {
			return nil, ferrors.InvalidField("regex", "invalid regular expression: "+err.Error())
		}
	}

	eff, scope, err := c.withDefaults(types.RemoteSettings{})
	if err != nil {
		return nil, err
	}
	defer scope.Pop()

	o := c.newOp("line")
	o.Desc(opts.Name, path)
	o.FinalState(operation.State{"line_present": opts.Present})

	var origBytes []byte
	var origContent string
	linePresent := false

	stat, err := c.Conn.Stat(path, false, false)
	if err != nil {
		return nil, err
	}
	if stat != nil {
		if stat.Type != types.FileTypeFile {
			return c.checkResult(o.Failure("path '"+path+"' exists but is not a file!"), opts.NoCheck)
		}
		origBytes, err = c.Conn.Download(path)
		if err != nil {
			return nil, err
		}
		origContent = string(origBytes)

		lines := splitLines(origContent)
		if re != nil {
			linePresent = re.MatchString(origContent)
		} else if opts.IgnoreWhitespace {
			want := strings.TrimSpace(line)
			for _, l := range lines {
				if strings.TrimSpace(l) == want {
					linePresent = true
					break
				}
			}
		} else {
			for _, l := range lines {
				if l == line {
					linePresent = true
					break
				}
			}
		}
	}

	o.InitialState(operation.State{"line_present": linePresent})

	if o.Unchanged(true) {
		return c.checkResult(o.Success(), opts.NoCheck)
	}

	lines := splitLines(origContent)
	if opts.Present {
		lines = append(lines, line)
	} else {
		lines = filterLines(lines, re, line, opts.IgnoreWhitespace)
	}
	newContent := strings.Join(lines, "\n") + "\n"
	newBytes := []byte(newContent)

	if c.Diffing {
		o.Diff(path, origBytes, newBytes)
	}

	if !c.DryRun {
		if stat == nil {
			if err := c.Conn.Upload(path, newBytes, connection.UploadOpts{Mode: eff.FileMode, Owner: eff.Owner, Group: eff.Group}); err != nil {
				return nil, err
			}
		} else {
			if opts.Backup != "" {
				// A caller-supplied name is relative to path's directory.
				backupPath := filepath.Join(filepath.Dir(path), opts.Backup)
				if _, err := c.Conn.Run([]string{"cp", "-a", "--", path, backupPath}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			} else if opts.BackupAuto {
				suffix := "." + time.Now().UTC().Format("2006-01-02T15:04:05Z") + ".bak"
				if _, err := c.Conn.Run([]string{"cp", "-a", "--", path, path + suffix}, connection.RunOpts{}); err != nil {
					return nil, err
				}
			}
			if err := c.Conn.Upload(path, newBytes, connection.UploadOpts{}); err != nil {
				return nil, err
			}
		}
	}

	return c.checkResult(o.Success(), opts.NoCheck)
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func filterLines(lines []string, re *regexp.Regexp, line string, ignoreWhitespace bool) []string {
	out := lines[:0:0]
	for _, l := range lines {
		var match bool
		switch {
		case re != nil:
			match = re.MatchString(l)
		case ignoreWhitespace:
			match = strings.TrimSpace(l) == strings.TrimSpace(line)
		default:
			match = l == line
		}
		if !match {
			out = append(out, l)
		}
	}
	return out
}
