package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"code.wormhole.org/golang/internal/observability"
	"code.wormhole.org/golang/pkg/mailbox"
	"code.wormhole.org/golang/pkg/wormhole"
)

// quietContext does not log to t, as reader goroutines may outlive the test.
func quietContext() context.Context {
	return observability.WithLogger(context.Background(), observability.NoopLogger())
}

func netPipeConns(t *testing.T, srz Serializer) (*StreamConn, *StreamConn) {
	c1, c2 := net.Pipe()
	deadline := time.Now().Add(10 * time.Second)
	c1.SetDeadline(deadline)
	c2.SetDeadline(deadline)

	a, err := NewStreamConn(quietContext(), RWTransport{R: c1, W: c1}, StreamCfg{AppID: "test-app", Serializer: srz})
	if nil != err {
		t.Fatalf("failed NewStreamConn a, got error %v", err)
	}
	b, err := NewStreamConn(quietContext(), RWTransport{R: c2, W: c2}, StreamCfg{AppID: "test-app", Serializer: srz})
	if nil != err {
		t.Fatalf("failed NewStreamConn b, got error %v", err)
	}
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a, b
}

func linePipeConns(t *testing.T) (*StreamConn, *StreamConn) {
	r1, w1 := io.Pipe()
	r2, w2 := io.Pipe()

	a, err := NewStreamConn(quietContext(), NewLineTransport(r2, w1), StreamCfg{AppID: "test-app", Side: "side-a"})
	if nil != err {
		t.Fatalf("failed NewStreamConn a, got error %v", err)
	}
	b, err := NewStreamConn(quietContext(), NewLineTransport(r1, w2), StreamCfg{AppID: "test-app", Side: "side-b"})
	if nil != err {
		t.Fatalf("failed NewStreamConn b, got error %v", err)
	}
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a, b
}

func runStreamHandshake(t *testing.T, a, b wormhole.Conn) {
	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	var sb *wormhole.Session
	var errB error
	done := make(chan struct{})
	go func() {
		defer close(done)
		sb, errB = wormhole.Handshake(ctx, b, []byte("correct-horse"), wormhole.HandshakeCfg{})
	}()
	sa, errA := wormhole.Handshake(ctx, a, []byte("correct-horse"), wormhole.HandshakeCfg{})
	<-done
	if nil != errA || nil != errB {
		t.Fatalf("failed Handshake, got errors %v, %v", errA, errB)
	}
	defer sa.Close()
	defer sb.Close()

	if !sa.Key().Equal(sb.Key()) {
		t.Fatal("failed key agreement")
	}

	_, err := sa.SendMessage(ctx, []byte("hello over the stream"))
	if nil != err {
		t.Fatalf("failed SendMessage, got error %v", err)
	}
	pt, phase, err := sb.ReceiveMessage(ctx)
	if nil != err {
		t.Fatalf("failed ReceiveMessage, got error %v", err)
	}
	if "hello over the stream" != string(pt) || wormhole.NumberedPhase(0) != phase {
		t.Errorf("failed message control, got (%s, %q)", phase, pt)
	}
}

func TestStreamConnHandshake(t *testing.T) {
	for _, s := range serializers {
		t.Run(s.name, func(t *testing.T) {
			a, b := netPipeConns(t, s.serializer)
			runStreamHandshake(t, a, b)
		})
	}
}

func TestStreamConnLineHandshake(t *testing.T) {
	a, b := linePipeConns(t)
	if "side-a" != a.Side() || "test-app" != a.AppID() {
		t.Errorf("failed identity control, got (%s, %s)", a.Side(), a.AppID())
	}
	runStreamHandshake(t, a, b)
}

func TestStreamConnWriteFailure(t *testing.T) {
	lt := NewLimitTransport(RWTransport{R: new(bytes.Buffer), W: io.Discard})
	lt.SetWriteLimit(1)

	conn, err := NewStreamConn(quietContext(), lt, StreamCfg{AppID: "test-app"})
	if nil != err {
		t.Fatalf("failed NewStreamConn, got error %v", err)
	}
	err = conn.Send(t.Context(), wormhole.PhasePake, []byte("body"))
	if !errors.Is(err, WriteLimitError) {
		t.Errorf("failed WriteLimitError control, got %v", err)
	}
}

func TestStreamConnReadFailure(t *testing.T) {
	buf := new(bytes.Buffer)
	mt := MessageTransport{Transport: RWTransport{R: buf, W: buf}, S: JSONSerializer{}}
	mt.WriteMessage(Frame{Type: FrameTypeMessage, Phase: wormhole.PhasePake, Side: "peer", Body: []byte("p")})
	mt.WriteMessage(Frame{Type: FrameTypeMessage, Phase: wormhole.PhaseVersion, Side: "peer", Body: []byte("v")})

	lt := NewLimitTransport(RWTransport{R: buf, W: io.Discard})
	lt.SetReadLimit(2)
	conn, err := NewStreamConn(quietContext(), lt, StreamCfg{AppID: "test-app"})
	if nil != err {
		t.Fatalf("failed NewStreamConn, got error %v", err)
	}
	<-conn.Done()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	msg, err := conn.Receive(ctx, wormhole.PhasePake)
	if nil != err || "p" != string(msg.Body) {
		t.Fatalf("failed receiving frame read before failure, got (%+v, %v)", msg, err)
	}
	_, err = conn.Receive(ctx, wormhole.PhaseVersion)
	if !errors.Is(err, ReadLimitError) || !errors.Is(err, mailbox.ErrClosed) {
		t.Errorf("failed ReadLimitError control, got %v", err)
	}
}

func TestStreamConnDropsInvalidStream(t *testing.T) {
	buf := new(bytes.Buffer)
	rwt := RWTransport{R: buf, W: buf}
	rwt.WriteBytes([]byte(`{"type":"welcome","phase":"pake","side":"peer","body":""}`))

	conn, err := NewStreamConn(quietContext(), RWTransport{R: buf, W: io.Discard}, StreamCfg{AppID: "test-app"})
	if nil != err {
		t.Fatalf("failed NewStreamConn, got error %v", err)
	}
	<-conn.Done()

	_, err = conn.Receive(t.Context(), wormhole.PhasePake)
	if !errors.Is(err, ValidationError) {
		t.Errorf("failed ValidationError control, got %v", err)
	}
}

func TestStreamCfg(t *testing.T) {
	_, err := NewStreamConn(quietContext(), RWTransport{}, StreamCfg{})
	if nil == err {
		t.Error("Oops, NewStreamConn accepted empty AppID")
	}
}
