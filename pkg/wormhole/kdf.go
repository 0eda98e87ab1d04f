package wormhole

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	purposePrefix   = "wormhole:phase:"
	verifierPurpose = "wormhole:verifier"

	maxDeriveSize = 255 * sha256.Size
)

// Purpose returns the derivation label of the key protecting the message sent by side in phase.
func Purpose(side Side, phase Phase) []byte {
	sideDigest := sha256.Sum256([]byte(side))
	phaseDigest := sha256.Sum256([]byte(phase))

	rv := make([]byte, 0, len(purposePrefix)+2*sha256.Size)
	rv = append(rv, purposePrefix...)
	rv = append(rv, sideDigest[:]...)
	rv = append(rv, phaseDigest[:]...)

	return rv
}

// DeriveKey returns length bytes of HKDF-SHA256 output keyed by key, with empty salt and purpose as info.
// It errors if key was destroyed or if length is not in 1..255*32.
func DeriveKey(key *SessionKey, purpose []byte, length int) ([]byte, error) {
	if length < 1 || length > maxDeriveSize {
		return nil, newError("invalid derived key length %d", length)
	}
	ikm, err := key.bytes()
	if nil != err {
		return nil, wrapError(err, "can not derive key")
	}

	rv := make([]byte, length)
	_, err = io.ReadFull(hkdf.New(sha256.New, ikm, nil, purpose), rv)
	if nil != err {
		return nil, wrapError(err, "failed hkdf expansion")
	}

	return rv, nil
}

// DerivePhaseKey returns the secretbox key protecting the message sent by side in phase.
func DerivePhaseKey(key *SessionKey, side Side, phase Phase) ([KeySize]byte, error) {
	var rv [KeySize]byte
	dk, err := DeriveKey(key, Purpose(side, phase), KeySize)
	if nil != err {
		return rv, err
	}
	copy(rv[:], dk)
	clear(dk)
	return rv, nil
}

// DeriveVerifier returns a value both peers can display to detect a man in the middle.
func DeriveVerifier(key *SessionKey) ([]byte, error) {
	return DeriveKey(key, []byte(verifierPurpose), sha256.Size)
}
