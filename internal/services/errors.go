package services

import "errors"

// Kind classifies a failure the caller can act on.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindForbidden        Kind = "forbidden"
	KindInvalidOperation Kind = "invalid_operation"
	KindBlocked          Kind = "blocked"
	KindOnlySelf         Kind = "only_self"
)

// Error is a terminal domain failure: a kind plus a message safe to show users.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches any *Error of the same kind, so callers can compare against the
// sentinels below regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrForbidden        = &Error{Kind: KindForbidden}
	ErrInvalidOperation = &Error{Kind: KindInvalidOperation}
	ErrBlocked          = &Error{Kind: KindBlocked}
	ErrOnlySelf         = &Error{Kind: KindOnlySelf}
)

func newError(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// KindOf extracts the domain kind from err, if it carries one.
func KindOf(err error) (Kind, bool) {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind, true
	}
	return "", false
}
