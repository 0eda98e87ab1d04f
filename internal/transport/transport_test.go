package transport

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"code.wormhole.org/golang/pkg/wormhole"
)

func TestMessageTransportLoopback(t *testing.T) {
	for _, s := range serializers {
		t.Run(s.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			mt := MessageTransport{Transport: RWTransport{R: buf, W: buf}, S: WrapInSafeSerializer(s.serializer)}

			msg1 := validFrame()
			err := mt.WriteMessage(msg1)
			if nil != err {
				t.Fatalf("failed writing msg1, got error %v", err)
			}
			srzmsg := buf.Bytes()
			t.Logf("msg1 prefix -> % X", srzmsg[:2])
			t.Logf("len(msg1) -> %d", len(srzmsg))

			msg2 := Frame{}
			err = mt.ReadMessage(&msg2)
			if nil != err {
				t.Fatalf("failed reading msg2, got error %v", err)
			}
			if !reflect.DeepEqual(msg1, msg2) {
				t.Fatalf("failed recovering msg1\n%+v\n!=\n%+v", msg1, msg2)
			}

			msg3 := RawMsg([]byte{1, 2, 3, 4, 5})
			err = mt.WriteMessage(msg3)
			if nil != err {
				t.Fatalf("failed writing msg3, got error %v", err)
			}
			msg4 := RawMsg{}
			err = mt.ReadMessage(&msg4)
			if nil != err {
				t.Fatalf("failed reading msg4, got error %v", err)
			}
			if !reflect.DeepEqual(msg3, msg4) {
				t.Fatalf("failed recovering msg3\n% X\n!=\n% X", msg3, msg4)
			}
		})
	}
}

func TestMessageTransportFailReadSerialization(t *testing.T) {
	buf := new(bytes.Buffer)

	// put invalid data in buf
	buf.Write([]byte{0, 5}) // length prefix
	buf.Write([]byte("12345"))

	mt := MessageTransport{Transport: RWTransport{R: buf, W: buf}, S: WrapInSafeSerializer(NewCBORSerializer())}

	msg := Frame{}
	err := mt.ReadMessage(&msg)
	if !errors.Is(err, SerializationError) {
		t.Errorf("failed not a SerializationError, err is %v", err)
	}
}

func TestMessageTransportFailWriteValidation(t *testing.T) {
	buf := new(bytes.Buffer)
	mt := MessageTransport{Transport: RWTransport{R: buf, W: buf}, S: WrapInSafeSerializer(JSONSerializer{})}

	msg := validFrame()
	msg.Phase = "-1"
	err := mt.WriteMessage(msg)
	if !errors.Is(err, ValidationError) {
		t.Errorf("failed not a ValidationError, err is %v", err)
	}
	if 0 != buf.Len() {
		t.Error("invalid message was written")
	}
}

func TestRWTransportLimits(t *testing.T) {
	buf := new(bytes.Buffer)
	rwt := RWTransport{R: buf, W: buf}

	err := rwt.WriteBytes(make([]byte, 0x10000))
	if nil == err {
		t.Error("Oops, RWTransport wrote more than 0xFFFF bytes")
	}
	err = rwt.WriteBytes(make([]byte, 0xFFFF))
	if nil != err {
		t.Fatalf("failed writing 0xFFFF bytes, got error %v", err)
	}
	data, err := rwt.ReadBytes()
	if nil != err || 0xFFFF != len(data) {
		t.Fatalf("failed ReadBytes, got (%d, %v)", len(data), err)
	}

	// truncated message
	buf.Write([]byte{0, 10, 1, 2})
	_, err = rwt.ReadBytes()
	if nil == err {
		t.Error("Oops, RWTransport read a truncated message")
	}
}

func TestLineTransport(t *testing.T) {
	src := strings.NewReader("first\n\r\nsecond\r\n\n" + strings.Repeat("x", 5000) + "\nlast")
	var dst bytes.Buffer
	lt := NewLineTransport(src, &dst)

	expects := []string{"first", "second", strings.Repeat("x", 5000), "last"}
	for pos, expect := range expects {
		line, err := lt.ReadBytes()
		if nil != err {
			t.Fatalf("#%d: failed ReadBytes, got error %v", pos, err)
		}
		if expect != string(line) {
			t.Errorf("#%d: failed line control, got %q", pos, line)
		}
	}
	_, err := lt.ReadBytes()
	if !errors.Is(err, io.EOF) {
		t.Errorf("failed EOF control, got error %v", err)
	}

	err = lt.WriteBytes([]byte(`{"a":1}`))
	if nil != err {
		t.Fatalf("failed WriteBytes, got error %v", err)
	}
	if "{\"a\":1}\n" != dst.String() {
		t.Errorf("failed written line control, got %q", dst.String())
	}
	err = lt.WriteBytes([]byte("two\nlines"))
	if nil == err {
		t.Error("Oops, LineTransport wrote a line terminator")
	}
}

func TestLineTransportMaxLineSize(t *testing.T) {
	src := strings.NewReader(strings.Repeat("x", MaxLineSize+10) + "\n")
	lt := NewLineTransport(src, io.Discard)
	_, err := lt.ReadBytes()
	if nil == err {
		t.Error("Oops, LineTransport read an oversized line")
	}
}

type closeCounter struct {
	io.Reader
	io.Writer
	count int
}

func (self *closeCounter) Close() error {
	self.count += 1
	return nil
}

func TestTransportClose(t *testing.T) {
	rw := &closeCounter{Reader: new(bytes.Buffer), Writer: io.Discard}

	err := RWTransport{R: rw, W: rw}.Close()
	if nil != err || 1 != rw.count {
		t.Errorf("failed RWTransport Close, got (%d, %v)", rw.count, err)
	}
	err = NewLineTransport(rw, rw).Close()
	if nil != err || 2 != rw.count {
		t.Errorf("failed LineTransport Close, got (%d, %v)", rw.count, err)
	}
	err = RWTransport{R: new(bytes.Buffer), W: io.Discard}.Close()
	if nil != err {
		t.Errorf("failed closing non closers, got error %v", err)
	}
}

func TestFrameMessage(t *testing.T) {
	msg := validFrame().Message()
	expect := wormhole.Message{Side: "0123456789", Phase: wormhole.PhasePake, Body: []byte(`{"pake_v1":"53"}`)}
	if !reflect.DeepEqual(expect, msg) {
		t.Errorf("failed Message control, got %+v", msg)
	}
}
