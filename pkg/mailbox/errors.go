package mailbox

import (
	"code.wormhole.org/golang/internal/utils"
)

type errorFlag string

const (
	// All package errors are wrapping Error
	Error = errorFlag("mailbox: error")

	// ErrClosed flags operations on a closed Inbox.
	ErrClosed = errorFlag("mailbox: closed")

	noError = errorFlag("")
)

// Error implements the error interface.
func (self errorFlag) Error() string {
	return string(self)
}

func (self errorFlag) Unwrap() error {
	if Error == self || noError == self {
		return nil
	}
	return Error
}

func wrapError(cause error, msg string, args ...any) error {
	return utils.WrapError(cause, 1, Error, msg, args...)
}

func closedError(cause error) error {
	return utils.WrapError(cause, 1, ErrClosed, "inbox closed")
}
