// Package boltdb provides a wormhole.Conn that exchanges messages through a single file boltdb database.
//
// Peers running on the same host open the same file with distinct sides. Each sent message is
// stored under its AppID bucket with key side|phase, and Receive polls the bucket for the requested
// phase written by another side. A received message is deleted from the file, so that a file can be
// reused by later exchanges once both peers are done.
//
// The first received message pins the peer: a Conn then ignores messages of any other side.
// Messages older than Cfg.Expiry, left over by an interrupted exchange, are ignored.
package boltdb

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"

	"code.wormhole.org/golang/internal/utils"
	"code.wormhole.org/golang/pkg/wormhole"
)

const (
	connectTimeout      = 5 * time.Second
	defaultPollInterval = 50 * time.Millisecond
	defaultExpiry       = 10 * time.Minute
	keySeparator        = 0x00
)

// Cfg parametrizes Open.
type Cfg struct {
	Path         string
	AppID        wormhole.AppID
	Side         wormhole.Side // random if empty
	PollInterval time.Duration // interval between database reads in Receive
	Timeout      time.Duration // maximum wait for the database file lock
	Expiry       time.Duration // age after which stored messages are ignored
}

// Check returns an error if the Cfg is invalid.
func (self Cfg) Check() error {
	if "" == self.Path {
		return newError("empty Path")
	}
	if "" == self.AppID {
		return newError("empty AppID")
	}
	if bytes.IndexByte([]byte(self.Side), keySeparator) >= 0 {
		return newError("invalid Side")
	}
	if self.PollInterval < 0 || self.Timeout < 0 || self.Expiry < 0 {
		return newError("negative duration")
	}
	return nil
}

// record is the stored form of a message.
type record struct {
	Side  string `cbor:"1,keyasint"`
	Phase string `cbor:"2,keyasint"`
	Body  []byte `cbor:"3,keyasint"`
	Sent  int64  `cbor:"4,keyasint"` // unix milliseconds
}

// Conn is a wormhole.Conn backed by a boltdb file.
type Conn struct {
	path     string
	appID    wormhole.AppID
	side     wormhole.Side
	interval time.Duration
	timeout  time.Duration
	expiry   time.Duration
	now      func() time.Time

	mut  sync.Mutex
	peer wormhole.Side
}

var _ wormhole.Conn = &Conn{}

// Open returns a Conn using the database at cfg.Path, creating it if needed.
func Open(cfg Cfg) (*Conn, error) {
	err := cfg.Check()
	if nil != err {
		return nil, wrapError(err, "invalid Cfg")
	}

	self := &Conn{
		path:     cfg.Path,
		appID:    cfg.AppID,
		side:     cfg.Side,
		interval: cfg.PollInterval,
		timeout:  cfg.Timeout,
		expiry:   cfg.Expiry,
		now:      time.Now,
	}
	if "" == self.side {
		self.side = wormhole.NewSide()
	}
	if 0 == self.interval {
		self.interval = defaultPollInterval
	}
	if 0 == self.timeout {
		self.timeout = connectTimeout
	}
	if 0 == self.expiry {
		self.expiry = defaultExpiry
	}

	db, err := self.open(false)
	if nil != err {
		return nil, err
	}
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(self.appID))
		return wrapError(err, "failed %s bucket creation", self.appID)
	})
	if nil != err {
		return nil, wrapError(err, "failed db initialization")
	}

	return self, nil
}

func (self *Conn) open(readOnly bool) (*bolt.DB, error) {
	db, err := bolt.Open(self.path, 0600, &bolt.Options{Timeout: self.timeout, ReadOnly: readOnly})
	if nil != err {
		return nil, wrapError(err, "failed connecting to database")
	}
	return db, nil
}

func (self *Conn) expired(rec record, now time.Time) bool {
	return now.Sub(time.UnixMilli(rec.Sent)) > self.expiry
}

func messageKey(side wormhole.Side, phase wormhole.Phase) []byte {
	key := make([]byte, 0, len(side)+1+len(phase))
	key = append(key, side...)
	key = append(key, keySeparator)
	key = append(key, phase...)
	return key
}

// Send stores body in phase. It errors with ErrPhaseReused if our side already sent phase and
// the peer has not received it yet. An expired message of the same phase is replaced.
func (self *Conn) Send(ctx context.Context, phase wormhole.Phase, body []byte) error {
	err := ctx.Err()
	if nil != err {
		return wrapError(err, "can not send phase %s", phase)
	}

	now := self.now()
	rec := record{
		Side:  string(self.side),
		Phase: string(phase),
		Body:  body,
		Sent:  now.UnixMilli(),
	}
	srzrec, err := cbor.Marshal(rec)
	if nil != err {
		return wrapError(err, "failed cbor.Marshal(record)")
	}

	db, err := self.open(false)
	if nil != err {
		return err
	}
	defer db.Close()

	key := messageKey(self.side, phase)
	return db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(self.appID))
		if nil == bucket {
			return newError("missing %s bucket", self.appID)
		}
		if srzprev := bucket.Get(key); nil != srzprev {
			var prev record
			err := cbor.Unmarshal(srzprev, &prev)
			if nil != err {
				return wrapError(err, "failed cbor.Unmarshal(record)")
			}
			if !self.expired(prev, now) {
				return utils.NewError(0, ErrPhaseReused, "phase %s already sent", phase)
			}
		}
		return wrapError(bucket.Put(key, srzrec), "failed storing message")
	})
}

// Receive polls the database until a message of phase sent by the peer is found, and deletes it.
// Until a first message is received, any other side is accepted as the peer.
func (self *Conn) Receive(ctx context.Context, phase wormhole.Phase) (wormhole.Message, error) {
	ticker := time.NewTicker(self.interval)
	defer ticker.Stop()

	for {
		msg, found, err := self.poll(phase)
		if nil != err {
			return wormhole.Message{}, wrapError(err, "failed polling phase %s", phase)
		}
		if found {
			return msg, nil
		}
		select {
		case <-ctx.Done():
			return wormhole.Message{}, wrapError(ctx.Err(), "interrupted waiting for phase %s", phase)
		case <-ticker.C:
		}
	}
}

// poll looks for a message of phase in a read only transaction, then consumes it in a write one.
// The read only database is closed first as both opens share the file lock.
func (self *Conn) poll(phase wormhole.Phase) (wormhole.Message, bool, error) {
	self.mut.Lock()
	defer self.mut.Unlock()

	key, msg, found, err := self.find(phase)
	if nil != err || !found {
		return msg, false, err
	}

	db, err := self.open(false)
	if nil != err {
		return msg, false, err
	}
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(self.appID))
		if nil == bucket || nil == bucket.Get(key) {
			found = false
			return nil
		}
		return wrapError(bucket.Delete(key), "failed deleting message")
	})
	if nil != err {
		return msg, false, err
	}
	if found && "" == self.peer {
		self.peer = msg.Side
	}

	return msg, found, nil
}

func (self *Conn) find(phase wormhole.Phase) ([]byte, wormhole.Message, bool, error) {
	var key []byte
	var msg wormhole.Message
	var found bool

	db, err := self.open(true)
	if nil != err {
		return nil, msg, false, err
	}
	defer db.Close()

	now := self.now()
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(self.appID))
		if nil == bucket {
			return newError("missing %s bucket", self.appID)
		}
		c := bucket.Cursor()
		for k, v := c.First(); nil != k; k, v = c.Next() {
			side, kphase, ok := bytes.Cut(k, []byte{keySeparator})
			if !ok || string(phase) != string(kphase) || string(self.side) == string(side) {
				continue
			}
			if "" != self.peer && string(self.peer) != string(side) {
				continue
			}
			var rec record
			err := cbor.Unmarshal(v, &rec)
			if nil != err {
				return wrapError(err, "failed cbor.Unmarshal(record)")
			}
			if self.expired(rec, now) {
				continue
			}
			key = bytes.Clone(k)
			msg = wormhole.Message{
				Side:  wormhole.Side(rec.Side),
				Phase: wormhole.Phase(rec.Phase),
				Body:  bytes.Clone(rec.Body),
			}
			found = true
			return nil
		}
		return nil
	})

	return key, msg, found, err
}

func (self *Conn) Side() wormhole.Side {
	return self.side
}

func (self *Conn) AppID() wormhole.AppID {
	return self.appID
}

// Purge removes every message stored for the Conn AppID.
func (self *Conn) Purge() error {
	db, err := self.open(false)
	if nil != err {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(self.appID))
		if nil != err {
			return wrapError(err, "failed deleting %s bucket", self.appID)
		}
		_, err = tx.CreateBucketIfNotExists([]byte(self.appID))
		return wrapError(err, "failed %s bucket creation", self.appID)
	})
}
