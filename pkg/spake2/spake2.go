// Package spake2 implements the symmetric variant of the SPAKE2 password authenticated key exchange.
//
// Both peers run identical logic: each one blinds a random group element with a password derived
// multiple of the constant element S = ArbitraryElement("symmetric"), exchanges it and unblinds the
// element received from the other peer. With the default Ed25519 group, messages and keys are
// compatible with python-spake2 SPAKE2_Symmetric as used by magic-wormhole.
package spake2

import (
	"bytes"
	"crypto/sha256"
	"io"

	"code.wormhole.org/golang/pkg/algos"
)

const (
	// SideSymmetric prefixes every symmetric SPAKE2 message.
	SideSymmetric = byte('S')

	// KeySize is the size of the key returned by State.Finish.
	KeySize = sha256.Size
)

var symmetricSeed = []byte("symmetric")

// Params fixes the group, the blinding element and the symmetric identity of an exchange.
// Params are immutable and can be reused for any number of exchanges sharing the same identity.
type Params struct {
	group       algos.Group
	blinding    algos.Element
	idSymmetric []byte
}

// NewParams returns Params using the Ed25519 group.
func NewParams(idSymmetric []byte) (Params, error) {
	return NewParamsWithGroup(algos.GROUP_ED25519, idSymmetric)
}

// NewParamsWithGroup returns Params using the registered group name.
// It errors if name does not reference a registered algos.Group.
func NewParamsWithGroup(name string, idSymmetric []byte) (Params, error) {
	group, err := algos.GetGroup(name)
	if nil != err {
		return Params{}, wrapError(err, "failed loading group")
	}
	blinding, err := group.ArbitraryElement(symmetricSeed)
	if nil != err {
		return Params{}, wrapError(err, "failed deriving blinding element")
	}

	return Params{
		group:       group,
		blinding:    blinding,
		idSymmetric: bytes.Clone(idSymmetric),
	}, nil
}

// Group returns the Params group.
func (self Params) Group() algos.Group {
	return self.group
}

// Blinding returns the encoding of the constant blinding element S.
func (self Params) Blinding() []byte {
	if nil == self.blinding {
		return nil
	}
	return self.blinding.Bytes()
}

// MessageSize returns the size of the messages exchanged by peers.
func (self Params) MessageSize() int {
	if nil == self.group {
		return 0
	}
	return 1 + self.group.ElementSize()
}

// Start begins an exchange. It returns the State needed to complete the exchange and
// the message to be sent to the other peer.
func (self Params) Start(password []byte, rand io.Reader) (*State, []byte, error) {
	if nil == self.group || nil == self.blinding {
		return nil, nil, newError("uninitialized Params")
	}

	pw, err := self.group.PasswordScalar(password)
	if nil != err {
		return nil, nil, wrapError(err, "failed deriving password scalar")
	}
	xy, err := self.group.RandomScalar(rand)
	if nil != err {
		pw.Clear()
		return nil, nil, wrapError(err, "failed generating random scalar")
	}

	// outbound = S*pw + G*xy
	outbound := self.blinding.ScalarMult(pw).Add(self.group.BaseMult(xy)).Bytes()

	pwDigest := sha256.Sum256(password)
	state := &State{
		params:   self,
		pw:       pw,
		xy:       xy,
		pwDigest: pwDigest[:],
		outbound: outbound,
	}

	msg := make([]byte, 0, 1+len(outbound))
	msg = append(msg, SideSymmetric)
	msg = append(msg, outbound...)

	return state, msg, nil
}

// State holds the secret values of an ongoing exchange.
// A State can be finished only once, after which its secrets are cleared.
type State struct {
	params   Params
	pw       algos.Scalar
	xy       algos.Scalar
	pwDigest []byte
	outbound []byte
	finished bool
}

// Finish completes the exchange using the inbound message sent by the other peer.
// It returns the KeySize bytes session key.
//
// The returned key is identical on both sides if and only if both peers used the same password and
// identity, otherwise keys differ and the mismatch is only detected by the first authenticated message.
func (self *State) Finish(inbound []byte) ([]byte, error) {
	if self.finished {
		return nil, newError("exchange already finished")
	}
	self.finished = true
	defer self.Clear()

	group := self.params.group
	if self.params.MessageSize() != len(inbound) {
		return nil, flagError(ErrInvalidMessage, nil, "invalid message size %d", len(inbound))
	}
	if SideSymmetric != inbound[0] {
		return nil, flagError(ErrOffSides, nil, "unexpected side byte %#02x", inbound[0])
	}
	inboundElem := inbound[1:]
	elem, err := group.DecodeElement(inboundElem)
	if nil != err {
		return nil, flagError(ErrInvalidMessage, err, "failed decoding message element")
	}
	if bytes.Equal(inboundElem, self.outbound) {
		return nil, flagError(ErrReflection, nil, "inbound message is our own")
	}

	// K = (inbound - S*pw) * xy
	negPw := self.pw.Negate()
	defer negPw.Clear()
	unblinding := self.params.blinding.ScalarMult(negPw)
	k := elem.Add(unblinding).ScalarMult(self.xy).Bytes()
	defer clear(k)

	// both sides sort the messages as none knows which one is first
	first, second := self.outbound, inboundElem
	if bytes.Compare(first, second) > 0 {
		first, second = second, first
	}
	idDigest := sha256.Sum256(self.params.idSymmetric)

	h := sha256.New()
	h.Write(self.pwDigest)
	h.Write(idDigest[:])
	h.Write(first)
	h.Write(second)
	h.Write(k)

	return h.Sum(nil), nil
}

// Clear zeroes the State secrets. It is safe to call Clear more than once.
func (self *State) Clear() {
	if nil != self.pw {
		self.pw.Clear()
	}
	if nil != self.xy {
		self.xy.Clear()
	}
	clear(self.pwDigest)
	self.finished = true
}
