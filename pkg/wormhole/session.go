package wormhole

import (
	"context"
	"sync"
)

// Session protects application messages exchanged after a successful Handshake.
//
// Messages sent through a Session use consecutive numbered phases starting at 0, one counter per
// direction. A phase number is consumed even if its send fails so that no purpose is used twice.
type Session struct {
	conn Conn
	key  *SessionKey

	peer Side

	mut      sync.Mutex
	nextSend uint64

	recvMut  sync.Mutex
	nextRecv uint64
}

func newSession(conn Conn, key *SessionKey, peer Side) *Session {
	return &Session{conn: conn, key: key, peer: peer}
}

// Side returns our Side.
func (self *Session) Side() Side {
	return self.conn.Side()
}

// Peer returns the Side that sent the pake message, confirmed by the VERSION exchange unless it was skipped.
func (self *Session) Peer() Side {
	return self.peer
}

// Key returns the Session key. It remains owned by the Session.
func (self *Session) Key() *SessionKey {
	return self.key
}

// Verifier returns the Session verification value.
func (self *Session) Verifier() ([]byte, error) {
	return DeriveVerifier(self.key)
}

// SendMessage encrypts plaintext and sends it in the next numbered phase, which it returns.
func (self *Session) SendMessage(ctx context.Context, plaintext []byte) (Phase, error) {
	self.mut.Lock()
	phase := NumberedPhase(self.nextSend)
	self.nextSend += 1
	self.mut.Unlock()

	pk, err := DerivePhaseKey(self.key, self.conn.Side(), phase)
	if nil != err {
		return phase, wrapError(err, "failed deriving key for phase %s", phase)
	}
	defer clear(pk[:])
	ct, err := Encrypt(&pk, plaintext)
	if nil != err {
		return phase, wrapError(err, "failed encrypting phase %s", phase)
	}
	err = self.conn.Send(ctx, phase, ct)
	if nil != err {
		return phase, wrapError(err, "failed sending phase %s", phase)
	}

	return phase, nil
}

// ReceiveMessage waits for the next numbered phase message sent by the peer and returns its plaintext.
//
// The phase counter only moves once a message was received, so that a cancelled ReceiveMessage
// can be retried. A message that fails decryption still consumes its phase.
func (self *Session) ReceiveMessage(ctx context.Context) ([]byte, Phase, error) {
	self.recvMut.Lock()
	defer self.recvMut.Unlock()

	phase := NumberedPhase(self.nextRecv)
	msg, err := self.conn.Receive(ctx, phase)
	if nil != err {
		return nil, phase, wrapError(err, "failed receiving phase %s", phase)
	}
	self.nextRecv += 1

	if self.peer != msg.Side {
		return nil, phase, flagError(ErrProtocol, nil, "phase %s sent by unknown side %s", phase, msg.Side)
	}
	pk, err := DerivePhaseKey(self.key, msg.Side, phase)
	if nil != err {
		return nil, phase, wrapError(err, "failed deriving key for phase %s", phase)
	}
	defer clear(pk[:])
	plaintext, err := Decrypt(&pk, msg.Body)
	if nil != err {
		return nil, phase, wrapError(err, "failed decrypting phase %s", phase)
	}

	return plaintext, phase, nil
}

// Close destroys the Session key. Later SendMessage and ReceiveMessage calls error.
// Close must not be called concurrently with SendMessage or ReceiveMessage.
func (self *Session) Close() {
	self.key.Destroy()
}
