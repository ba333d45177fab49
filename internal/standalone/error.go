package standalone

import (
	"strings"

	"github.com/pkg/errors"
)

// Kind tags the semantic category of an Error, independent of its Go type,
// mirroring the error kinds a caller needs to branch on: store problems,
// I/O, parse failures, data-shape problems, and the handful of domain
// conditions the orchestrators themselves raise.
type Kind string

const (
	KeyError                    Kind = "KeyError"
	IOError                     Kind = "IOError"
	ParseError                  Kind = "ParseError"
	TypeError                   Kind = "TypeError"
	KeyNotFoundInStructuredData Kind = "KeyNotFoundInStructuredData"
	DatabaseValueError          Kind = "DatabaseValueError"
	NotSupported                Kind = "NotSupported"
	OperationInProgress         Kind = "OperationInProgress"
	NoUpdateInProgressKind      Kind = "NoUpdateInProgress"
	ProgrammingError            Kind = "ProgrammingError"
)

// Error is the composable diagnostic value the core accumulates onto.
// FollowedBy appends a secondary error (e.g. a Cleanup failure on top of an
// ArtifactInstall failure) without discarding either side, so a caller or a
// test can walk the chain and assert on individual kinds.
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	follower *Error
}

// New builds a root Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a root Error that carries an underlying cause.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return New(kind, message)
	}
	return &Error{Kind: kind, Message: message, Cause: errors.WithStack(err)}
}

// FollowedBy folds other onto the end of e's chain and returns e, so calls
// compose: err = err.FollowedBy(cleanupErr).FollowedBy(commitErr).
// A nil receiver adopts other directly; FollowedBy(nil) is a no-op.
func (e *Error) FollowedBy(other *Error) *Error {
	if other == nil {
		return e
	}
	if e == nil {
		return other
	}
	tail := e
	for tail.follower != nil {
		tail = tail.follower
	}
	tail.follower = other
	return e
}

// Chain returns every Error in order, primary first.
func (e *Error) Chain() []*Error {
	if e == nil {
		return nil
	}
	out := make([]*Error, 0, 1)
	for cur := e; cur != nil; cur = cur.follower {
		out = append(out, cur)
	}
	return out
}

// HasKind reports whether any error in the chain carries the given kind.
func (e *Error) HasKind(kind Kind) bool {
	for _, err := range e.Chain() {
		if err.Kind == kind {
			return true
		}
	}
	return false
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := make([]string, 0, 2)
	for _, err := range e.Chain() {
		if err.Cause != nil {
			parts = append(parts, string(err.Kind)+": "+err.Message+": "+err.Cause.Error())
		} else {
			parts = append(parts, string(err.Kind)+": "+err.Message)
		}
	}
	return strings.Join(parts, "; followed by: ")
}

// Unwrap exposes the primary cause so errors.Is/errors.As and pkg/errors
// helpers work across the chain's head.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
