// Package ferrors defines the transport-agnostic error taxonomy shared by
// adapters, the dispatcher, and the reconcilers. A Kind drives requeue
// policy; it is never meant to be inspected by end users directly.
package ferrors

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation failed, independent of which adapter or
// component raised it.
type Kind string

const (
	// NotFound means a dependent record is absent.
	NotFound Kind = "NotFound"
	// NotReady means a dependent record exists but isn't usable yet.
	NotReady Kind = "NotReady"
	// Conflict means a schema or source/target-kind mismatch.
	Conflict Kind = "Conflict"
	// Unauthorized means a credential failure.
	Unauthorized Kind = "Unauthorized"
	// Transient means a network, 5xx, or timeout failure likely to clear on retry.
	Transient Kind = "Transient"
	// Permanent means a validation or logic error unlikely to resolve on retry.
	Permanent Kind = "Permanent"
	// Fatal means an invariant violation, e.g. a model mutated under a Ready binding.
	Fatal Kind = "Fatal"
)

// Error is the concrete error type carried through the system. It always
// has a Kind and a human-readable message; Target, when set, names the
// ModelStorage the error is about, for diagnostics.
type Error struct {
	Kind    Kind
	Target  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Target)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind and message to an existing error without discarding
// it; errors.Unwrap still reaches the original cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithTarget returns a copy of the error annotated with the storage it
// concerns, the way the dispatcher stamps adapter errors for diagnostics.
func (e *Error) WithTarget(target string) *Error {
	out := *e
	out.Target = target
	return &out
}

// KindOf extracts the Kind from err, defaulting to Permanent for errors
// that were never classified (programmer errors, stdlib errors that leaked
// through unwrapped).
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Permanent
}

// Is reports whether err (or something it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
