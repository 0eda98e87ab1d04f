package wormhole

import (
	"context"
	"log/slog"

	"code.wormhole.org/golang/internal/observability"
	"code.wormhole.org/golang/pkg/algos"
	"code.wormhole.org/golang/pkg/spake2"
)

// HandshakeCfg parametrizes Handshake.
type HandshakeCfg struct {
	Group       string       // SPAKE2 group name, algos.GROUP_ED25519 if empty
	Logger      *slog.Logger // overrides the Context logger if not nil
	TraceId     string       // random if empty
	SkipVersion bool         // stop after the PAKE exchange, the Session peer is then the pake sender
}

// Check returns an error if the HandshakeCfg is invalid.
func (self HandshakeCfg) Check() error {
	if "" == self.Group {
		return nil
	}
	_, err := algos.GetGroup(self.Group)
	if nil != err {
		return wrapError(err, "invalid Group")
	}
	return nil
}

func (self HandshakeCfg) groupName() string {
	if "" == self.Group {
		return algos.GROUP_ED25519
	}
	return self.Group
}

// Handshake runs the PAKE exchange followed by the VERSION confirmation over conn.
// It returns a Session that protects application messages with the confirmed key.
//
// The key is destroyed if any step fails.
func Handshake(ctx context.Context, conn Conn, password []byte, cfg HandshakeCfg) (*Session, error) {
	err := cfg.Check()
	if nil != err {
		return nil, wrapError(err, "invalid HandshakeCfg")
	}
	if 0 == len(password) {
		return nil, newError("empty password")
	}
	if nil != cfg.Logger {
		ctx = observability.WithLogger(ctx, cfg.Logger)
	}
	ctx, _ = observability.WithTrace(ctx, cfg.TraceId, "side", conn.Side(), "appId", conn.AppID())
	log := observability.GetObservability(ctx).Log()

	var errmsg string
	params, err := spake2.NewParamsWithGroup(cfg.groupName(), []byte(conn.AppID()))
	if nil != err {
		errmsg = "failed loading SPAKE2 params"
		log.Debug(errmsg, "error", err)
		return nil, wrapError(err, "%s", errmsg)
	}

	log.Debug("starting pake", "group", cfg.groupName())
	key, pakePeer, err := exchangePake(ctx, conn, params, password)
	if nil != err {
		errmsg = "failed pake exchange"
		log.Debug(errmsg, "error", err)
		return nil, wrapError(err, "%s", errmsg)
	}
	session := newSession(conn, key, pakePeer)
	if cfg.SkipVersion {
		log.Debug("pake done, skipping version")
		return session, nil
	}

	log.Debug("pake done, starting version")
	peer, err := exchangeVersions(ctx, conn, key)
	if nil != err {
		session.Close()
		errmsg = "failed version exchange"
		log.Debug(errmsg, "error", err)
		return nil, wrapError(err, "%s", errmsg)
	}
	if peer != pakePeer {
		session.Close()
		errmsg = "VERSION sent by another side than pake"
		log.Debug(errmsg, "pake", pakePeer, "version", peer)
		return nil, flagError(ErrProtocol, nil, "%s", errmsg)
	}
	log.Debug("handshake done", "peer", peer)

	return session, nil
}
