package transport

import (
	"code.wormhole.org/golang/internal/utils"
	"code.wormhole.org/golang/pkg/wormhole"
)

// FrameTypeMessage is the type of Frames carrying phase messages.
const FrameTypeMessage = "message"

// Frame is the envelope of a phase message moved over a stream.
//
// Its JSON form is the one used by magic-wormhole mailbox messages,
// e.g. {"type":"message","phase":"pake","side":"...","body":"<hex>"}.
type Frame struct {
	Type  string          `json:"type" cbor:"1,keyasint"`
	Phase wormhole.Phase  `json:"phase" cbor:"2,keyasint"`
	Side  wormhole.Side   `json:"side" cbor:"3,keyasint"`
	Body  utils.HexBinary `json:"body" cbor:"4,keyasint"`
}

// Check returns an error if the Frame is invalid.
func (self Frame) Check() error {
	if FrameTypeMessage != self.Type {
		return newError("unsupported frame type %q", self.Type)
	}
	_, err := wormhole.ParsePhase(string(self.Phase))
	if nil != err {
		return wrapError(err, "invalid Phase")
	}
	if "" == self.Side {
		return newError("empty Side")
	}
	return nil
}

// Message returns the wormhole.Message carried by the Frame.
func (self Frame) Message() wormhole.Message {
	return wormhole.Message{Side: self.Side, Phase: self.Phase, Body: []byte(self.Body)}
}
