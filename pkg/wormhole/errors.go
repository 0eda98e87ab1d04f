package wormhole

import (
	"code.wormhole.org/golang/internal/utils"
)

type errorFlag string

const (
	// All package errors are wrapping Error
	Error = errorFlag("wormhole: error")

	// ErrParse flags received bodies that are not well formed or carry undecodable fields.
	ErrParse = errorFlag("wormhole: parse error")

	// ErrProtocol flags well formed bodies that carry invalid protocol material.
	ErrProtocol = errorFlag("wormhole: protocol error")

	// ErrCouldNotDecrypt flags ciphertexts that failed authentication.
	ErrCouldNotDecrypt = errorFlag("wormhole: could not decrypt")

	// ErrInvalidNonce flags ciphertexts shorter than the nonce.
	ErrInvalidNonce = errorFlag("wormhole: invalid nonce")

	// ErrVersionMismatch flags decrypted VERSION payloads that differ from the expected structure.
	ErrVersionMismatch = errorFlag("wormhole: version mismatch")

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
