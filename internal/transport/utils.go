package transport

import (
	"sync"
)

// LimitTransport wraps a Transport and refuses every ReadBytes or WriteBytes call from a configured
// call number on. It lets tests cut a Frame exchange at a chosen step.
type LimitTransport struct {
	Transport
	mut       sync.Mutex
	reads     int
	writes    int
	readFail  int // number of the first refused ReadBytes, 0 if none
	writeFail int // number of the first refused WriteBytes, 0 if none
}

// NewLimitTransport returns a LimitTransport wrapping t, without limits.
func NewLimitTransport(t Transport) *LimitTransport {
	return &LimitTransport{Transport: t}
}

// SetReadLimit makes ReadBytes call number limit, and all later ones, fail with ReadLimitError.
func (self *LimitTransport) SetReadLimit(limit int) {
	self.mut.Lock()
	defer self.mut.Unlock()

	self.readFail = self.reads + limit
}

// SetWriteLimit makes WriteBytes call number limit, and all later ones, fail with WriteLimitError.
func (self *LimitTransport) SetWriteLimit(limit int) {
	self.mut.Lock()
	defer self.mut.Unlock()

	self.writeFail = self.writes + limit
}

func (self *LimitTransport) ReadBytes() ([]byte, error) {
	self.mut.Lock()
	self.reads += 1
	refused := 0 != self.readFail && self.reads >= self.readFail
	n := self.reads
	self.mut.Unlock()

	if refused {
		return nil, wrapError(ReadLimitError, "ReadBytes #%d refused", n)
	}
	return self.Transport.ReadBytes()
}

func (self *LimitTransport) WriteBytes(data []byte) error {
	self.mut.Lock()
	self.writes += 1
	refused := 0 != self.writeFail && self.writes >= self.writeFail
	n := self.writes
	self.mut.Unlock()

	if refused {
		return wrapError(WriteLimitError, "WriteBytes #%d refused", n)
	}
	return self.Transport.WriteBytes(data)
}

var _ Transport = &LimitTransport{}
