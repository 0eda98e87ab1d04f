package algos

import (
	"code.wormhole.org/golang/internal/utils"
)

type errorFlag string

const (
	// All package errors are wrapping Error
	Error = errorFlag("algos: error")

	// ErrInvalidElement flags element encodings rejected by a Group.
	ErrInvalidElement = errorFlag("algos: invalid element")

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

func newError(msg string, args ...any) error {
	return utils.NewError(1, Error, msg, args...)
}

func wrapError(cause error, msg string, args ...any) error {
	return utils.WrapError(cause, 1, Error, msg, args...)
}

func invalidElement(msg string, args ...any) error {
	return utils.NewError(1, ErrInvalidElement, msg, args...)
}
