package media

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the errors the core boundary can return. The Manager and
// the bundled HTTP driver always return an *Error so callers can switch on
// Kind() rather than string-match.
type Kind int

const (
	KindUnknown Kind = iota
	KindFileNotFound
	KindNotAFile
	KindFileExists
	KindInvalidHandle
	KindInvalidURL
	KindInvalidPath
	KindNoDriverFound
	KindWorkerBroken
	KindHTTPError
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindFileNotFound:
		return "FileNotFound"
	case KindNotAFile:
		return "NotAFile"
	case KindFileExists:
		return "FileExists"
	case KindInvalidHandle:
		return "InvalidHandle"
	case KindInvalidURL:
		return "InvalidUrl"
	case KindInvalidPath:
		return "InvalidPath"
	case KindNoDriverFound:
		return "NoDriverFound"
	case KindWorkerBroken:
		return "WorkerBroken"
	case KindHTTPError:
		return "HttpError"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is the error type returned across the media package boundary. It
// wraps an optional cause with pkg/errors so callers that want a stack trace
// for KindInternal failures can get one by walking the Unwrap chain (e.g.
// errors.As into a StackTracer); *Error has no Cause method, so
// errors.Cause stops at the *Error itself.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.cause)
	}
	if e.msg != "" {
		return fmt.Sprintf("%s: %s", e.kind, e.msg)
	}
	return e.kind.String()
}

func (e *Error) Unwrap() error { return e.cause }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

func newErr(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func wrapErr(kind Kind, msg string, cause error) *Error {
	return &Error{kind: kind, msg: msg, cause: errors.WithStack(cause)}
}

// Sentinel-style constructors, mirroring the MediaError enum of the Rust
// implementation this core was distilled from.
var (
	ErrFileNotFound   = newErr(KindFileNotFound, "no mirror provided the requested file")
	ErrNotAFile       = newErr(KindNotAFile, "path has no representable file name")
	ErrFileExists     = newErr(KindFileExists, "target path exists and is not a directory")
	ErrInvalidHandle  = newErr(KindInvalidHandle, "attachment id not found")
	ErrInvalidURL     = newErr(KindInvalidURL, "malformed URL")
	ErrInvalidPath    = newErr(KindInvalidPath, "path could not be joined onto a mirror URL")
	ErrNoDriverFound  = newErr(KindNoDriverFound, "no registered driver supports any given mirror scheme")
)

// HTTPError wraps a transport-layer failure from the current mirror. It is
// always local to the mirror-fallback loop inside Provide - the loop moves
// on to the next mirror rather than surfacing it, unless every mirror fails.
func HTTPError(cause error) *Error {
	return wrapErr(KindHTTPError, "transport error", cause)
}

// WorkerBroken wraps a closed dispatch queue or a lost one-shot reply.
func WorkerBroken(reason string) *Error {
	return newErr(KindWorkerBroken, reason)
}

// Internal wraps poisoned state, tempdir failures and other I/O errors that
// have no more specific Kind.
func Internal(msg string, cause error) *Error {
	if cause == nil {
		return newErr(KindInternal, msg)
	}
	return wrapErr(KindInternal, msg, cause)
}

// IsKind reports whether err is an *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.kind == kind
	}
	return false
}
