// Package ferrors defines the error taxonomy used across the controller:
// usage errors, load errors, connection/protocol errors, remote OS errors,
// invalid-field errors and operation failures all carry a stable code plus
// enough structured context to be rendered without re-parsing a message
// string.
package ferrors

import "fmt"

// Code identifies the category of a ForaError.
type Code string

const (
	CodeUsage      Code = "USAGE_ERROR"
	CodeLoad       Code = "LOAD_ERROR"
	CodeCycle      Code = "CYCLE_ERROR"
	CodeAmbiguity  Code = "AMBIGUITY_ERROR"
	CodeConnection Code = "CONNECTION_ERROR"
	CodeProtocol   Code = "PROTOCOL_ERROR"
	CodeOS         Code = "OS_ERROR"
	CodeInvalidArg Code = "INVALID_FIELD_ERROR"
	CodeOperation  Code = "OPERATION_ERROR"
)

// ForaError is a structured error with a stable code, a human message,
// an optional wrapped cause and free-form context for renderers.
type ForaError struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]any
}

func (e *ForaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ForaError) Unwrap() error { return e.Cause }

func (e *ForaError) With(key string, value any) *ForaError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func new_(code Code, message string, cause error) *ForaError {
	return &ForaError{Code: code, Message: message, Cause: cause}
}

// Usage reports a CLI argument/flag error. Exit code 1, no stack context.
func Usage(format string, args ...any) *ForaError {
	return new_(CodeUsage, fmt.Sprintf(format, args...), nil)
}

// Load reports a malformed inventory, missing module, or other error
// that occurs before any host connection is opened.
func Load(format string, args ...any) *ForaError {
	return new_(CodeLoad, fmt.Sprintf(format, args...), nil)
}

// LoadAt attaches a source location ("file:line") to a load error.
func LoadAt(loc, format string, args ...any) *ForaError {
	return new_(CodeLoad, fmt.Sprintf(format, args...), nil).With("location", loc)
}

// Cycle reports a dependency cycle found during group rank-sorting.
// vertices is the set of vertices the cycle was detected among.
func Cycle(vertices []string) *ForaError {
	return new_(CodeCycle, fmt.Sprintf("dependency cycle detected, cycle includes %v", vertices), nil).
		With("cycle", vertices)
}

// Ambiguity reports two or more groups assigning the same variable
// without a declared ordering between them.
func Ambiguity(variable string, definers []string) *ForaError {
	return new_(CodeAmbiguity, fmt.Sprintf("variable %q has ambiguous evaluation order between %v", variable, definers), nil).
		With("variable", variable).
		With("definers", definers)
}

// Connection reports a transport spawn/handshake/EOF failure.
func Connection(host string, cause error) *ForaError {
	return new_(CodeConnection, fmt.Sprintf("connection to %q failed", host), cause).With("host", host)
}

// Protocol reports a malformed frame or unknown packet id. Always fatal
// to the connection it occurred on.
func Protocol(format string, args ...any) *ForaError {
	return new_(CodeProtocol, fmt.Sprintf(format, args...), nil)
}

// OSErrorDetail mirrors the errno/strerror pair of the remote OSError
// tunnel packet.
type OSErrorDetail struct {
	Errno    int64
	Strerror string
}

// OS wraps a remote OS-level failure surfaced via the OSError packet.
func OS(errno int64, strerror, msg string) *ForaError {
	e := new_(CodeOS, msg, nil)
	e.With("errno", errno).With("strerror", strerror)
	return e
}

// Errno extracts the remote errno from an OS error, if present.
func Errno(err error) (int64, bool) {
	var fe *ForaError
	if !As(err, &fe) || fe.Code != CodeOS {
		return 0, false
	}
	n, ok := fe.Context["errno"].(int64)
	return n, ok
}

// InvalidField reports a request parameter the remote rejected.
func InvalidField(field, message string) *ForaError {
	return new_(CodeInvalidArg, message, nil).With("field", field)
}

// Field returns the offending field name of an InvalidField error, if any.
func Field(err error) (string, bool) {
	var fe *ForaError
	if !As(err, &fe) || fe.Code != CodeInvalidArg {
		return "", false
	}
	f, ok := fe.Context["field"].(string)
	return f, ok
}

// CallerSite identifies the user script location an OperationError
// should be reported as originating from, rewritten away from
// framework internals.
type CallerSite struct {
	File string
	Line int
}

// Operation reports a declared operation failure (op.failure(msg)).
func Operation(message string, site CallerSite) *ForaError {
	return new_(CodeOperation, message, nil).With("caller_site", site)
}

// Is/As thin re-exports so callers don't need a second import for the
// common case of testing a ForaError's code.
func Is(err error, code Code) bool {
	var fe *ForaError
	if !As(err, &fe) {
		return false
	}
	return fe.Code == code
}

func As(err error, target **ForaError) bool {
	for err != nil {
		if fe, ok := err.(*ForaError); ok {
			*target = fe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
