package errprocess

import (
	"errors"
	"fmt"
)

// Kind classifies how an error should be handled by the caller.
type Kind int

const (
	// KindUnknown unclassified failure
	KindUnknown Kind = iota
	// KindValidation caller input violates a precondition; never retried
	KindValidation
	// KindConflict storage uniqueness/race collision; recover by re-query
	KindConflict
	// KindNotFound requested row does not exist
	KindNotFound
	// KindRead backend failed to service a read
	KindRead
	// KindWrite backend rejected or failed a write
	KindWrite
	// KindSubscription realtime channel failed to establish or dropped
	KindSubscription
)

// Error carries a Kind alongside the message so handlers can map failures
// to the right response without string matching.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap expose the wrapped cause
func (e *Error) Unwrap() error { return e.err }

// New create a classified error
func New(kind Kind, msg string) error {
	return &Error{kind: kind, msg: msg}
}

// Wrap classify an underlying error
func Wrap(kind Kind, msg string, err error) error {
	return &Error{kind: kind, msg: msg, err: err}
}

// KindOf report the Kind of err, or KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

// Is report whether err carries the given kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
