package wormhole

import (
	"encoding/json"

	"code.wormhole.org/golang/internal/utils"
)

// PakeMsg is the body of "pake" phase messages.
type PakeMsg struct {
	PakeV1 utils.HexBinary `json:"pake_v1"`
}

// Check returns an error if the PakeMsg is invalid.
func (self PakeMsg) Check() error {
	if 0 == len(self.PakeV1) {
		return newError("missing pake_v1")
	}
	return nil
}

// EncodePake returns the "pake" phase body carrying the SPAKE2 message msg.
func EncodePake(msg []byte) ([]byte, error) {
	pm := PakeMsg{PakeV1: msg}
	err := pm.Check()
	if nil != err {
		return nil, wrapError(err, "invalid PakeMsg")
	}
	body, err := json.Marshal(pm)
	if nil != err {
		return nil, wrapError(err, "failed json.Marshal")
	}
	return body, nil
}

// DecodePake returns the SPAKE2 message carried by a "pake" phase body.
// It errors with ErrParse if body is not valid JSON, if pake_v1 is missing or is not valid hex.
func DecodePake(body []byte) ([]byte, error) {
	var pm PakeMsg
	err := json.Unmarshal(body, &pm)
	if nil != err {
		return nil, flagError(ErrParse, err, "failed decoding pake body")
	}
	err = pm.Check()
	if nil != err {
		return nil, flagError(ErrParse, err, "invalid pake body")
	}
	return pm.PakeV1, nil
}
