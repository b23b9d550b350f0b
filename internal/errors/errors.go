// Package errors defines diffr's typed CLI errors and maps them to
// process exit codes.
package errors

import stderrors "errors"

// Kind classifies why diffr failed, for both exit-code mapping and
// structured logging.
type Kind string

const (
	KindCLIParse Kind = "cli_parse"
	KindIO       Kind = "io"
)

// exitCodes follows the sysexits.h convention: 64 for usage errors,
// 74 for I/O errors. Cache failures never reach here; they're logged
// and treated as a cache miss, never a fatal Error.
var exitCodes = map[Kind]int{
	KindCLIParse: 64,
	KindIO:       74,
}

// Error is a diffr error carrying enough context to pick an exit code
// and to log a useful message without a stack trace.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error of the given kind wrapping err.
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// ExitCode maps err to a process exit code. Unrecognized errors (those
// not constructed via New) exit 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var de *Error
	if stderrors.As(err, &de) {
		if code, ok := exitCodes[de.Kind]; ok {
			return code
		}
	}
	return 1
}
