package wormhole

import (
	"context"
	"crypto/rand"

	"golang.org/x/sync/errgroup"

	"code.wormhole.org/golang/pkg/spake2"
)

// ExchangePake runs one symmetric SPAKE2 round over conn in phase "pake".
//
// It sends our message and receives the peer one concurrently, then combines them with password.
// It errors with ErrParse if the peer body is malformed and with ErrProtocol if its content is
// not a valid SPAKE2 message. On error no SessionKey is returned and the exchange secrets are cleared.
func ExchangePake(ctx context.Context, conn Conn, params spake2.Params, password []byte) (*SessionKey, error) {
	key, _, err := exchangePake(ctx, conn, params, password)
	return key, err
}

// exchangePake returns the side of the peer that sent the pake message.
func exchangePake(ctx context.Context, conn Conn, params spake2.Params, password []byte) (*SessionKey, Side, error) {
	state, outbound, err := params.Start(password, rand.Reader)
	if nil != err {
		return nil, "", wrapError(err, "failed starting SPAKE2")
	}
	defer state.Clear()

	body, err := EncodePake(outbound)
	if nil != err {
		return nil, "", wrapError(err, "failed encoding pake body")
	}

	var inbound []byte
	var peer Side
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := conn.Send(gctx, PhasePake, body)
		if nil != err {
			return wrapError(err, "failed sending pake")
		}
		return nil
	})

	g.Go(func() error {
		msg, err := conn.Receive(gctx, PhasePake)
		if nil != err {
			return wrapError(err, "failed receiving pake")
		}
		inbound, err = DecodePake(msg.Body)
		if nil != err {
			return wrapError(err, "failed decoding pake")
		}
		peer = msg.Side
		return nil
	})

	err = g.Wait()
	if nil != err {
		return nil, "", err
	}

	raw, err := state.Finish(inbound)
	if nil != err {
		return nil, "", flagError(ErrProtocol, err, "failed SPAKE2 exchange")
	}
	defer clear(raw)

	key, err := NewSessionKey(raw)
	if nil != err {
		return nil, "", err
	}
	return key, peer, nil
}
