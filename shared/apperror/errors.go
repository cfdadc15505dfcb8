// Package apperror carries the error kinds the account core hands back to its
// callers. The transport layer maps a Kind to a status code; nothing inside the
// core recovers from these.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindAlreadyExists
	KindActionNotAllowed
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindActionNotAllowed:
		return "action_not_allowed"
	case KindValidation:
		return "validation_failed"
	default:
		return "internal"
	}
}

// Message templates shared by the command and query services.
const (
	UserNotFound          = "User not found: username = %s"
	UserExistsUsername    = "User already exists: username = %s"
	DebitNotEnoughMoney   = "The amount should be less than %s"
	internalFailedMessage = "Internal error"
)

// Error is a typed failure with a client-facing message. Err keeps the
// underlying cause for logs and errors.Is checks.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(username string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(UserNotFound, username)}
}

func AlreadyExists(username string, cause error) *Error {
	return &Error{Kind: KindAlreadyExists, Message: fmt.Sprintf(UserExistsUsername, username), Err: cause}
}

func ActionNotAllowed(message string) *Error {
	return &Error{Kind: KindActionNotAllowed, Message: message}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Internal wraps an unexpected failure (storage, bus, exhausted retries).
func Internal(message string, cause error) *Error {
	if message == "" {
		message = internalFailedMessage
	}
	return &Error{Kind: KindInternal, Message: message, Err: cause}
}

// KindOf reports the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the client-facing message of err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
