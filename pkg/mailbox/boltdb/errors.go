package boltdb

import (
	"code.wormhole.org/golang/internal/utils"
)

type errorFlag string

const (
	// All package errors are wrapping Error
	Error = errorFlag("boltdb: error")

	// ErrPhaseReused flags a second Send of the same phase by the same side.
	ErrPhaseReused = errorFlag("boltdb: phase reused")

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
