package mailbox

import (
	"bytes"
	"context"

	"code.wormhole.org/golang/pkg/wormhole"
)

var _ wormhole.Conn = &LoopConn{}

// LoopConn is an in memory wormhole.Conn.
//
// Like a rendezvous server, it delivers every sent message to all the connections of its
// loop, the sender included; the sender Inbox drops the echo.
type LoopConn struct {
	appID wormhole.AppID
	side  wormhole.Side
	inbox *Inbox
	loop  []*Inbox
}

// NewLoopback returns two connected LoopConn with distinct random sides.
func NewLoopback(appID wormhole.AppID) (*LoopConn, *LoopConn) {
	sideA := wormhole.NewSide()
	sideB := wormhole.NewSide()
	for sideA == sideB {
		sideB = wormhole.NewSide()
	}
	a := &LoopConn{appID: appID, side: sideA, inbox: NewInbox(sideA)}
	b := &LoopConn{appID: appID, side: sideB, inbox: NewInbox(sideB)}
	loop := []*Inbox{a.inbox, b.inbox}
	a.loop = loop
	b.loop = loop

	return a, b
}

func (self *LoopConn) Send(ctx context.Context, phase wormhole.Phase, body []byte) error {
	err := ctx.Err()
	if nil != err {
		return wrapError(err, "can not send phase %s", phase)
	}
	for _, inbox := range self.loop {
		inbox.Deliver(wormhole.Message{Side: self.side, Phase: phase, Body: bytes.Clone(body)})
	}
	return nil
}

func (self *LoopConn) Receive(ctx context.Context, phase wormhole.Phase) (wormhole.Message, error) {
	return self.inbox.Receive(ctx, phase)
}

func (self *LoopConn) Side() wormhole.Side {
	return self.side
}

func (self *LoopConn) AppID() wormhole.AppID {
	return self.appID
}

// Inbox returns the LoopConn Inbox.
func (self *LoopConn) Inbox() *Inbox {
	return self.inbox
}

// Close closes every Inbox of the loop.
func (self *LoopConn) Close() {
	for _, inbox := range self.loop {
		inbox.Close(nil)
	}
}
