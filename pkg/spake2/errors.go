package spake2

import (
	"code.wormhole.org/golang/internal/utils"
)

type errorFlag string

const (
	// All package errors are wrapping Error
	Error = errorFlag("spake2: error")

	// ErrInvalidMessage flags inbound messages that do not carry a valid group element.
	ErrInvalidMessage = errorFlag("spake2: invalid message")

	// ErrOffSides flags inbound messages that were not produced by a symmetric peer.
	ErrOffSides = errorFlag("spake2: off sides")

	// ErrReflection flags inbound messages that are a copy of our own outbound message.
	ErrReflection = errorFlag("spake2: reflection thwarted")

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

func flagError(flag errorFlag, cause error, msg string, args ...any) error {
	if nil == cause {
		return utils.NewError(1, flag, msg, args...)
	}
	return utils.WrapError(cause, 1, flag, msg, args...)
}
