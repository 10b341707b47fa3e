package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can act on policy without
// parsing message strings.
type Kind int

const (
	// Unauthenticated means the caller's credential is missing, malformed or expired.
	Unauthenticated Kind = iota
	// Forbidden means the credential is valid but the caller may not act on the target.
	Forbidden
	// Validation means the input itself is malformed.
	Validation
	// NotFound means the target is absent (e.g. lost a delete race).
	NotFound
	// Dependency means a storage or catalog collaborator failed.
	Dependency
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Dependency:
		return "dependency"
	default:
		return "unknown"
	}
}

// Error carries a kind, a caller-safe message, and the internal cause.
// The cause is for logs only and must never be surfaced to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an error of the given kind with a caller-safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap re-wraps a collaborator error so raw driver/SDK errors never
// cross the service boundary.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of err, or Dependency for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Dependency
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// MessageOf returns the caller-safe message of err, or fallback when
// err is not a kinded error.
func MessageOf(err error, fallback string) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return fallback
}
