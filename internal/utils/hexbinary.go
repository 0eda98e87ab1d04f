package utils

import (
	"encoding/hex"
)

// HexBinary is a []byte that marshals to/from lowercase hexadecimal text.
//
// It is used for the "pake_v1" field of PAKE messages and for mailbox message bodies.
type HexBinary []byte

// UnmarshalText decodes hexadecimal text, reusing the HexBinary storage when large enough.
func (self *HexBinary) UnmarshalText(text []byte) error {
	var dst []byte
	hxsz := hex.DecodedLen(len(text))
	if cap([]byte(*self)) >= hxsz {
		dst = []byte(*self)[:0]
	} else {
		dst = make([]byte, 0, hxsz)
	}

	dst, err := hex.AppendDecode(dst, text)
	if nil != err {
		return err
	}

	*self = HexBinary(dst)
	return nil
}

// MarshalText encodes the HexBinary as lowercase hexadecimal text.
func (self HexBinary) MarshalText() ([]byte, error) {
	var dst []byte
	dst = hex.AppendEncode(dst, []byte(self))
	return dst, nil
}

func (self HexBinary) String() string {
	return hex.EncodeToString(self)
}
