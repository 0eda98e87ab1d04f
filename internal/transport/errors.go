package transport

import (
	"code.wormhole.org/golang/internal/utils"
)

type errorFlag string

const (
	// All package errors are wrapping Error
	Error = errorFlag("transport: error")

	// ValidationError flags messages whose Check method failed.
	ValidationError = errorFlag("transport: validation error")

	// SerializationError flags messages that could not be marshaled or unmarshaled.
	SerializationError = errorFlag("transport: serialization error")

	// ReadLimitError is raised by LimitTransport.
	ReadLimitError = errorFlag("transport: read limit error")

	// WriteLimitError is raised by LimitTransport.
	WriteLimitError = errorFlag("transport: write limit error")

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
