package transport

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"code.wormhole.org/golang/internal/observability"
	"code.wormhole.org/golang/pkg/mailbox"
	"code.wormhole.org/golang/pkg/wormhole"
)

// StreamCfg parametrizes NewStreamConn.
type StreamCfg struct {
	AppID      wormhole.AppID
	Side       wormhole.Side // random if empty
	Serializer Serializer    // JSONSerializer if nil
}

// Check returns an error if the StreamCfg is invalid.
func (self StreamCfg) Check() error {
	if "" == self.AppID {
		return newError("empty AppID")
	}
	return nil
}

// StreamConn is a wormhole.Conn exchanging Frames over a Transport.
//
// A reader goroutine pumps received Frames into a mailbox.Inbox, which dispatches them per phase.
// The reader stops on the first Transport or Frame error, after which Receive errors once the
// Inbox is drained.
type StreamConn struct {
	appID wormhole.AppID
	side  wormhole.Side
	mt    MessageTransport
	inbox *mailbox.Inbox
	log   *slog.Logger

	wmut sync.Mutex
	done chan struct{}
}

var _ wormhole.Conn = &StreamConn{}

// NewStreamConn starts reading Frames from t and returns a StreamConn that writes Frames to t.
// ctx provides the logger used by the reader goroutine.
func NewStreamConn(ctx context.Context, t Transport, cfg StreamCfg) (*StreamConn, error) {
	err := cfg.Check()
	if nil != err {
		return nil, wrapError(err, "invalid StreamCfg")
	}
	side := cfg.Side
	if "" == side {
		side = wormhole.NewSide()
	}
	srz := cfg.Serializer
	if nil == srz {
		srz = JSONSerializer{}
	}

	self := &StreamConn{
		appID: cfg.AppID,
		side:  side,
		mt:    MessageTransport{Transport: t, S: WrapInSafeSerializer(srz)},
		inbox: mailbox.NewInbox(side),
		log:   observability.GetObservability(ctx).Log().With("side", side),
		done:  make(chan struct{}),
	}
	go self.readLoop()

	return self, nil
}

func (self *StreamConn) readLoop() {
	defer close(self.done)
	for {
		var frame Frame
		err := self.mt.ReadMessage(&frame)
		if nil != err {
			self.log.Debug("stream reader stopped", "error", err)
			self.inbox.Close(err)
			return
		}
		if !self.inbox.Deliver(frame.Message()) {
			self.log.Debug("dropped frame", "phase", frame.Phase, "from", frame.Side)
		}
	}
}

// Send writes a Frame carrying body in phase.
// Concurrent Sends are serialized. ctx is only checked before writing.
func (self *StreamConn) Send(ctx context.Context, phase wormhole.Phase, body []byte) error {
	err := ctx.Err()
	if nil != err {
		return wrapError(err, "can not send phase %s", phase)
	}

	self.wmut.Lock()
	defer self.wmut.Unlock()

	frame := Frame{Type: FrameTypeMessage, Phase: phase, Side: self.side, Body: body}
	err = self.mt.WriteMessage(frame)
	if nil != err {
		return wrapError(err, "failed sending phase %s", phase)
	}

	return nil
}

func (self *StreamConn) Receive(ctx context.Context, phase wormhole.Phase) (wormhole.Message, error) {
	return self.inbox.Receive(ctx, phase)
}

func (self *StreamConn) Side() wormhole.Side {
	return self.side
}

func (self *StreamConn) AppID() wormhole.AppID {
	return self.appID
}

// Close closes the Transport if it is an io.Closer and waits for the reader goroutine to stop.
// Without such a Transport, the reader goroutine stops when its source returns an error.
func (self *StreamConn) Close() error {
	var err error
	if c, ok := self.mt.Transport.(io.Closer); ok {
		err = c.Close()
		<-self.done
	}
	self.inbox.Close(nil)
	return wrapError(err, "failed closing transport")
}

// Done is closed when the reader goroutine stops.
func (self *StreamConn) Done() <-chan struct{} {
	return self.done
}
