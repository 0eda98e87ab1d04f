// Package mailbox provides the phase indexed inbox shared by wormhole connections.
package mailbox

import (
	"context"
	"sync"

	"code.wormhole.org/golang/pkg/wormhole"
)

// Inbox holds received messages in one queue per phase.
//
// Receive only ever takes messages of the phase it was asked for, so concurrent consumers of
// distinct phases can not steal each other messages. Messages sent by the Inbox owner side,
// which rendezvous servers echo back, are dropped on delivery.
type Inbox struct {
	side wormhole.Side

	mut    sync.Mutex
	queues map[wormhole.Phase][]wormhole.Message
	wake   map[wormhole.Phase]chan struct{}
	err    error
}

// NewInbox returns an empty Inbox owned by side.
func NewInbox(side wormhole.Side) *Inbox {
	return &Inbox{
		side:   side,
		queues: make(map[wormhole.Phase][]wormhole.Message),
		wake:   make(map[wormhole.Phase]chan struct{}),
	}
}

// Deliver appends msg to the queue of its phase and wakes the consumers waiting for it.
// It returns false if msg was dropped, because it was sent by the Inbox owner or the Inbox is closed.
func (self *Inbox) Deliver(msg wormhole.Message) bool {
	self.mut.Lock()
	defer self.mut.Unlock()

	if self.side == msg.Side || nil != self.err {
		return false
	}
	self.queues[msg.Phase] = append(self.queues[msg.Phase], msg)
	if ch, found := self.wake[msg.Phase]; found {
		close(ch)
		delete(self.wake, msg.Phase)
	}

	return true
}

// Receive blocks until a message of phase is available and removes it from the Inbox.
// It errors if ctx is done or if the Inbox was closed and holds no message of phase.
func (self *Inbox) Receive(ctx context.Context, phase wormhole.Phase) (wormhole.Message, error) {
	for {
		msg, ch, err := self.take(phase)
		if nil != err {
			return wormhole.Message{}, err
		}
		if nil == ch {
			return msg, nil
		}
		select {
		case <-ctx.Done():
			return wormhole.Message{}, wrapError(ctx.Err(), "interrupted waiting for phase %s", phase)
		case <-ch:
		}
	}
}

// take returns the head of phase queue or a channel closed on the next delivery.
func (self *Inbox) take(phase wormhole.Phase) (wormhole.Message, chan struct{}, error) {
	self.mut.Lock()
	defer self.mut.Unlock()

	if q := self.queues[phase]; len(q) > 0 {
		msg := q[0]
		if 1 == len(q) {
			delete(self.queues, phase)
		} else {
			q[0] = wormhole.Message{}
			self.queues[phase] = q[1:]
		}
		return msg, nil, nil
	}
	if nil != self.err {
		return wormhole.Message{}, nil, self.err
	}

	ch, found := self.wake[phase]
	if !found {
		ch = make(chan struct{})
		self.wake[phase] = ch
	}
	return wormhole.Message{}, ch, nil
}

// Pending returns the number of queued messages of phase.
func (self *Inbox) Pending(phase wormhole.Phase) int {
	self.mut.Lock()
	defer self.mut.Unlock()
	return len(self.queues[phase])
}

// Close stops message delivery and wakes every waiting consumer.
// Waiting consumers error with cause, or with ErrClosed if cause is nil.
// Messages already queued can still be received.
func (self *Inbox) Close(cause error) {
	self.mut.Lock()
	defer self.mut.Unlock()

	if nil != self.err {
		return
	}
	if nil == cause {
		self.err = ErrClosed
	} else {
		self.err = closedError(cause)
	}
	for phase, ch := range self.wake {
		close(ch)
		delete(self.wake, phase)
	}
}
