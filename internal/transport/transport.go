// Package transport moves wormhole messages over byte streams.
package transport

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

type Transport interface {
	ReadBytes() ([]byte, error)
	WriteBytes(data []byte) error
}

// T aliases Transport
type T = Transport

// MessageTransport read/write messages to inner Transport after converting them to bytes
type MessageTransport struct {
	Transport
	S Serializer // Convert messages to bytes and bytes to messages.
}

// WriteMessage converts msg to bytes and writes msg bytes to inner Transport.
func (self MessageTransport) WriteMessage(msg any) error {
	var srzmsg []byte
	var err error

	switch v := msg.(type) {
	case RawMsg:
		srzmsg = []byte(v)
	default:
		srzmsg, err = self.S.Marshal(msg)
		if nil != err {
			return wrapError(err, "failed marshalling msg")
		}
	}

	err = self.WriteBytes(srzmsg)

	return wrapError(err, "failed writing msg") // nil if err is nil ...
}

// ReadMessage reads msg bytes from inner Transport and deserializes them to msg.
func (self MessageTransport) ReadMessage(msg any) error {

	srzmsg, err := self.ReadBytes()
	if nil != err {
		return wrapError(err, "failed reading message bytes")
	}

	// unmarshal srzmsg
	switch v := msg.(type) {
	case *RawMsg:
		*v = RawMsg(srzmsg)
	default:
		err = self.S.Unmarshal(srzmsg, msg)
	}

	return wrapError(err, "failed unmarshaling message") // nil if err is nil

}

// RawMsg is a "marker" type used to disable serialization
type RawMsg []byte

// RWTransport frames messages with a uint16 big endian length prefix.
type RWTransport struct {
	R io.Reader // source from which messages are read.
	W io.Writer // destination to which messages are written.
}

func (self RWTransport) ReadBytes() ([]byte, error) {
	// read size
	psb := make([]byte, 2)
	_, err := io.ReadFull(self.R, psb)
	if nil != err {
		return nil, wrapError(err, "failed reading data size")
	}
	psz := binary.BigEndian.Uint16(psb)

	// read data
	data := make([]byte, int(psz))
	_, err = io.ReadFull(self.R, data)
	if nil != err {
		return nil, wrapError(err, "failed reading data")
	}

	return data, nil
}

func (self RWTransport) WriteBytes(data []byte) error {
	if len(data) > 0xFFFF {
		return newError("data larger than %d", 0xFFFF)
	}

	// prefix data with uint16 length
	pdata := make([]byte, 2+len(data))
	binary.BigEndian.PutUint16(pdata, uint16(len(data)))
	copy(pdata[2:], data)

	_, err := self.W.Write(pdata)

	return wrapError(err, "failed writing data") // nil if err is nil
}

// Close closes R and W if they are io.Closer.
func (self RWTransport) Close() error {
	return closeAll(self.R, self.W)
}

// LineTransport frames messages with a trailing newline.
//
// It is compatible with tools exchanging one JSON document per line.
type LineTransport struct {
	R *bufio.Reader
	W io.Writer

	closers []any
}

// MaxLineSize bounds the size of lines read by LineTransport.
const MaxLineSize = 1 << 16

// NewLineTransport returns a LineTransport reading lines from r and writing lines to w.
func NewLineTransport(r io.Reader, w io.Writer) LineTransport {
	return LineTransport{R: bufio.NewReader(r), W: w, closers: []any{r, w}}
}

// ReadBytes returns the next non empty line, without its line terminator.
func (self LineTransport) ReadBytes() ([]byte, error) {
	var line []byte
	for {
		chunk, err := self.R.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > MaxLineSize {
			return nil, newError("line larger than %d", MaxLineSize)
		}
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case nil != err && (0 == len(line) || !errors.Is(err, io.EOF)):
			return nil, wrapError(err, "failed reading line")
		}
		line = bytes.TrimRight(line, "\r\n")
		if 0 == len(line) {
			if nil != err {
				return nil, wrapError(err, "failed reading line")
			}
			continue
		}
		return line, nil
	}
}

// WriteBytes writes data followed by a newline. It errors if data contains a newline.
func (self LineTransport) WriteBytes(data []byte) error {
	if bytes.ContainsAny(data, "\r\n") {
		return newError("data contains line terminator")
	}

	ldata := make([]byte, len(data)+1)
	copy(ldata, data)
	ldata[len(data)] = '\n'

	_, err := self.W.Write(ldata)

	return wrapError(err, "failed writing line") // nil if err is nil
}

// Close closes the reader and writer passed to NewLineTransport if they are io.Closer.
func (self LineTransport) Close() error {
	return closeAll(self.closers...)
}

func closeAll(items ...any) error {
	var errs []error
	seen := make([]io.Closer, 0, len(items))
	for _, item := range items {
		c, ok := item.(io.Closer)
		if !ok {
			continue
		}
		dup := false
		for _, s := range seen {
			if s == c {
				dup = true
			}
		}
		if dup {
			continue
		}
		seen = append(seen, c)
		errs = append(errs, c.Close())
	}
	return wrapError(errors.Join(errs...), "failed closing")
}
