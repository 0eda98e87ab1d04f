package wormhole

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
)

// SessionKeySize is the size of the key output by the SPAKE2 exchange.
const SessionKeySize = 32

const redacted = "SessionKey(REDACTED)"

// noCopy lets go vet copylocks check flag SessionKey copies.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// SessionKey holds the secret output of a successful PAKE exchange.
//
// A SessionKey is only ever used as KDF input. It redacts itself when formatted or logged
// and Destroy zeroes its storage.
type SessionKey struct {
	_         noCopy
	key       [SessionKeySize]byte
	destroyed bool
}

// NewSessionKey returns a SessionKey holding a copy of key.
// It errors if key size is not SessionKeySize.
func NewSessionKey(key []byte) (*SessionKey, error) {
	if SessionKeySize != len(key) {
		return nil, newError("invalid key size %d != %d", len(key), SessionKeySize)
	}
	rv := &SessionKey{}
	copy(rv.key[:], key)
	return rv, nil
}

// Expose returns a copy of the key bytes, or nil if the SessionKey was destroyed.
func (self *SessionKey) Expose() []byte {
	if nil == self || self.destroyed {
		return nil
	}
	rv := make([]byte, SessionKeySize)
	copy(rv, self.key[:])
	return rv
}

// Equal returns true if self and other hold the same key.
func (self *SessionKey) Equal(other *SessionKey) bool {
	if nil == self || nil == other || self.destroyed || other.destroyed {
		return false
	}
	return 1 == subtle.ConstantTimeCompare(self.key[:], other.key[:])
}

// Destroy zeroes the key. It is safe to call Destroy more than once.
func (self *SessionKey) Destroy() {
	if nil == self {
		return
	}
	clear(self.key[:])
	self.destroyed = true
}

// Destroyed returns true if Destroy was called.
func (self *SessionKey) Destroyed() bool {
	return nil == self || self.destroyed
}

func (self *SessionKey) String() string {
	return redacted
}

func (self *SessionKey) GoString() string {
	return redacted
}

// Format implements fmt.Formatter so that no verb prints the key.
func (self *SessionKey) Format(f fmt.State, _ rune) {
	f.Write([]byte(redacted))
}

// LogValue implements slog.LogValuer.
func (self *SessionKey) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

// MarshalText implements encoding.TextMarshaler.
func (self *SessionKey) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

func (self *SessionKey) bytes() ([]byte, error) {
	if nil == self || self.destroyed {
		return nil, newError("nil or destroyed SessionKey")
	}
	return self.key[:], nil
}
