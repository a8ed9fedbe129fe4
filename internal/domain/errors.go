package domain

import "errors"

// Kind classifies user-facing failures.
type Kind string

// Failure kinds surfaced to the transport layer.
const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "not_found"
)

// Error is a recoverable, user-facing failure. Message is safe to show.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Validation reports bad or missing form input.
func Validation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }

// Conflict reports a uniqueness violation.
func Conflict(msg string) error { return &Error{Kind: KindConflict, Message: msg} }

// Auth reports rejected credentials.
func Auth(msg string) error { return &Error{Kind: KindAuth, Message: msg} }

// NotFound reports an unknown or foreign resource.
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }

// KindOf returns the Kind of err, or "" when err is not a *Error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// MessageOf returns the user-facing message of err, or "" when err is not
// a *Error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
