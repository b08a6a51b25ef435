package cli

import (
	"fmt"
	"io"

	"github.com/aledsdavies/fora/pkgs/ferrors"
)

// FormatError prints err for CLI output, grounded on the teacher's
// cli/errors.go: a colored one-line "Error: ..." header, with a
// ForaError's code and any location context appended beneath it.
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}

	var fe *ferrors.ForaError
	if ferrors.As(err, &fe) {
		formatForaError(w, fe, useColor)
		return
	}
	fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Error())
}

func formatForaError(w io.Writer, fe *ferrors.ForaError, useColor bool) {
	fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), fe.Message)

	if loc, ok := fe.Context["location"].(string); ok {
		fmt.Fprintf(w, "%s%s\n", Colorize("  at ", ColorGray, useColor), loc)
	}
	if site, ok := fe.Context["caller_site"].(ferrors.CallerSite); ok {
		fmt.Fprintf(w, "%s%s:%d\n", Colorize("  at ", ColorGray, useColor), site.File, site.Line)
	}
	if fe.Cause != nil {
		fmt.Fprintf(w, "%s%v\n", Colorize("  caused by: ", ColorGray, useColor), fe.Cause)
	}
}
