package cli

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/aledsdavies/fora/core/types"
)

// Reporter prints one operation result per line, in the style spec.md
// §7 describes: a green-titled success (or red-titled failure with its
// one-line cause), and with --diff, content diffs with non-printable
// bytes escaped.
type Reporter struct {
	w          io.Writer
	useColor   bool
	showDiff   bool
	showChange bool // false when --no-changes suppresses change summaries
}

// NewReporter builds a Reporter writing to w.
func NewReporter(w io.Writer, useColor, showDiff, showChange bool) *Reporter {
	return &Reporter{w: w, useColor: useColor, showDiff: showDiff, showChange: showChange}
}

// Report renders one operation's result. Suitable as an ops.Context.Report
// callback.
func (r *Reporter) Report(res *types.OperationResult) {
	if res.HasNested {
		for _, child := range res.Nested {
			r.Report(child)
		}
		return
	}

	switch {
	case !res.Success:
		fmt.Fprintf(r.w, "%s %s: %s\n",
			Colorize("FAIL", ColorRed, r.useColor), label(res), res.FailureMessage)
	case res.Changed:
		if r.showChange {
			fmt.Fprintf(r.w, "%s %s\n", Colorize("CHANGED", ColorGreen, r.useColor), label(res))
		}
	default:
		if r.showChange {
			fmt.Fprintf(r.w, "%s %s\n", Colorize("OK", ColorGreen, r.useColor), label(res))
		}
	}

	if r.showDiff {
		for _, d := range res.Diffs {
			r.writeDiff(d)
		}
	}
}

func label(res *types.OperationResult) string {
	if res.Label != "" {
		return fmt.Sprintf("%s[%s] %s", res.Kind, res.Label, res.Description)
	}
	return fmt.Sprintf("%s %s", res.Kind, res.Description)
}

// writeDiff renders one DiffEntry: a header naming the path, then every
// line of the old content prefixed with "-", then every line of the new
// content prefixed with "+" (lines are not matched up against each
// other), with non-printable bytes escaped (\t, \xff, etc.).
func (r *Reporter) writeDiff(d types.DiffEntry) {
	fmt.Fprintf(r.w, "%s\n", Colorize("--- "+d.Path, ColorCyan, r.useColor))
	for _, line := range bytes.Split(d.Old, []byte("\n")) {
		if len(line) == 0 && d.Old == nil {
			continue
		}
		fmt.Fprintf(r.w, "%s\n", Colorize("-"+escapeDiffLine(line), ColorRed, r.useColor))
	}
	for _, line := range bytes.Split(d.New, []byte("\n")) {
		if len(line) == 0 && d.New == nil {
			continue
		}
		fmt.Fprintf(r.w, "%s\n", Colorize("+"+escapeDiffLine(line), ColorGreen, r.useColor))
	}
}

// escapeDiffLine escapes control and non-UTF8 bytes so a binary file's
// diff doesn't corrupt the terminal.
func escapeDiffLine(line []byte) string {
	var b strings.Builder
	for _, c := range line {
		switch {
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&b, `\x%02x`, c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
