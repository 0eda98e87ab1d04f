// Package wormhole implements the handshake of a rendezvous mediated secure channel.
//
// Peers sharing a short code run a symmetric SPAKE2 exchange in phase "pake" to obtain a
// SessionKey, confirm it by exchanging encrypted VERSION messages, then protect every later
// message with a secretbox key derived from (SessionKey, sender side, phase).
package wormhole

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strconv"
)

// AppID scopes a wormhole protocol instance to an application.
type AppID string

// Side identifies one peer for the lifetime of one connection.
type Side string

const sideSize = 5

// NewSide returns a random Side made of 10 lowercase hexadecimal characters.
func NewSide() Side {
	var buf [sideSize]byte
	rand.Read(buf[:])
	return Side(hex.EncodeToString(buf[:]))
}

// Phase names a step of the message sequence.
//
// Well known phases are PhasePake and PhaseVersion. Application phases are numbered and
// encoded as unsigned decimal without sign nor leading zeros, so that each number has a
// single encoding that never collides with a well known phase.
type Phase string

const (
	PhasePake    = Phase("pake")
	PhaseVersion = Phase("version")
)

// NumberedPhase returns the application Phase with number n.
func NumberedPhase(n uint64) Phase {
	return Phase(strconv.FormatUint(n, 10))
}

// ParsePhase validates s and returns the corresponding Phase.
// It errors with ErrParse if s is neither a well known phase nor a canonical numbered phase.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	switch p {
	case PhasePake, PhaseVersion:
		return p, nil
	}
	if _, ok := p.Number(); !ok {
		return "", flagError(ErrParse, nil, "invalid phase %q", s)
	}
	return p, nil
}

// Number returns the number of an application Phase.
// It returns false if self is not a canonical numbered phase.
func (self Phase) Number() (uint64, bool) {
	s := string(self)
	if 0 == len(s) || (len(s) > 1 && '0' == s[0]) {
		return 0, false
	}
	for _, c := range []byte(s) {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if nil != err {
		return 0, false
	}
	return n, true
}

// Message is a phase tagged body received from a peer.
type Message struct {
	Side  Side
	Phase Phase
	Body  []byte
}

// Conn is the connection collaborator consumed by the handshake.
//
// Send and Receive may be called concurrently. Receive blocks until a Message of the requested
// phase sent by the peer is available and never consumes a Message of another phase.
type Conn interface {
	Send(ctx context.Context, phase Phase, body []byte) error
	Receive(ctx context.Context, phase Phase) (Message, error)
	Side() Side
	AppID() AppID
}
