package qerr

import (
	"errors"
	"fmt"
)

// Kind classifies broker errors so the transport layer can pick a status
// without string-matching. Kinds are part of the API contract: callers
// distinguish client-correctable conditions (NoSuchQueue, BadRequest,
// NotFound) from infrastructure failures (Connection, Staging, Internal).
type Kind int

const (
	// KindInternal is an unexpected backend failure.
	KindInternal Kind = iota
	// KindConnection means the pool or backend was unreachable.
	KindConnection
	// KindNoSuchQueue means an operation targeted a queue that does not exist.
	KindNoSuchQueue
	// KindBadRequest means client input failed validation; nothing was applied.
	KindBadRequest
	// KindNotFound means a resource (not a queue) was absent, e.g. on delete.
	KindNotFound
	// KindStaging means a staged job record could not be written or read.
	KindStaging
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindNoSuchQueue:
		return "no_such_queue"
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindStaging:
		return "staging"
	default:
		return "internal"
	}
}

// Error is a kinded broker error. It wraps an optional cause and carries the
// queue name when one is in scope.
type Error struct {
	Kind  Kind
	Queue string
	Msg   string
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	default:
		return e.Kind.String()
	}
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.Cause }

// New constructs a kinded error with a message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap constructs a kinded error around a cause.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// NoSuchQueue reports that the named queue does not exist.
func NoSuchQueue(queue string) *Error {
	return &Error{Kind: KindNoSuchQueue, Queue: queue, Msg: fmt.Sprintf("queue %q does not exist", queue)}
}

// BadRequest reports invalid client input.
func BadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Msg: msg}
}

// NotFound reports an absent resource on a deletion or lookup path.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// Connection reports pool or backend unavailability.
func Connection(cause error) *Error {
	return &Error{Kind: KindConnection, Msg: "backend unavailable", Cause: cause}
}

// Staging reports a staging store read/write failure.
func Staging(queue string, cause error) *Error {
	return &Error{Kind: KindStaging, Queue: queue, Msg: "staging store failure", Cause: cause}
}

// Internal reports an unexpected backend failure.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Cause: cause}
}

// KindOf extracts the Kind from an error chain; non-kinded errors report
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
