package wormhole

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"
)

const appVersionsKey = "app_versions"

// versionPlaintext advertises an empty application capability set.
var versionPlaintext = []byte(`{"app_versions":{}}`)

// ExchangeVersions confirms that the peer holds key.
//
// It concurrently sends our VERSION message and receives the peer one. It errors with
// ErrCouldNotDecrypt or ErrInvalidNonce if the peer message can not be opened, with ErrParse if the
// plaintext is not JSON and with ErrVersionMismatch if it is not an empty capability set.
func ExchangeVersions(ctx context.Context, conn Conn, key *SessionKey) error {
	_, err := exchangeVersions(ctx, conn, key)
	return err
}

// exchangeVersions returns the side of the peer that sent the VERSION message.
func exchangeVersions(ctx context.Context, conn Conn, key *SessionKey) (Side, error) {
	var peer Side
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		pk, err := DerivePhaseKey(key, conn.Side(), PhaseVersion)
		if nil != err {
			return wrapError(err, "failed deriving VERSION send key")
		}
		defer clear(pk[:])
		ct, err := Encrypt(&pk, versionPlaintext)
		if nil != err {
			return wrapError(err, "failed encrypting VERSION")
		}
		err = conn.Send(gctx, PhaseVersion, ct)
		if nil != err {
			return wrapError(err, "failed sending VERSION")
		}
		return nil
	})

	g.Go(func() error {
		msg, err := conn.Receive(gctx, PhaseVersion)
		if nil != err {
			return wrapError(err, "failed receiving VERSION")
		}
		pk, err := DerivePhaseKey(key, msg.Side, PhaseVersion)
		if nil != err {
			return wrapError(err, "failed deriving VERSION receive key")
		}
		defer clear(pk[:])
		plaintext, err := Decrypt(&pk, msg.Body)
		if nil != err {
			return wrapError(err, "failed decrypting VERSION")
		}
		err = checkVersions(plaintext)
		if nil != err {
			return err
		}
		peer = msg.Side
		return nil
	})

	err := g.Wait()
	if nil != err {
		return "", err
	}
	return peer, nil
}

// checkVersions accepts exactly {"app_versions":{}}, whitespace aside.
func checkVersions(plaintext []byte) error {
	var versions any
	err := json.Unmarshal(plaintext, &versions)
	if nil != err {
		return flagError(ErrParse, err, "failed decoding VERSION plaintext")
	}
	obj, ok := versions.(map[string]any)
	if !ok || 1 != len(obj) {
		return flagError(ErrVersionMismatch, nil, "unexpected VERSION structure")
	}
	appVersions, ok := obj[appVersionsKey].(map[string]any)
	if !ok || 0 != len(appVersions) {
		return flagError(ErrVersionMismatch, nil, "unexpected %s", appVersionsKey)
	}
	return nil
}
