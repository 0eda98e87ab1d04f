package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/rand/v2"

	"golang.org/x/crypto/hkdf"

	"code.wormhole.org/golang/internal/utils"
	"code.wormhole.org/golang/pkg/wormhole"
)

var rng *rand.ChaCha8 // see init at the bottom of this file

// Below code derives wormhole phase keys directly with hkdf, without using the wormhole package
// derivation functions. The goal is to deliver test vectors computed independently of the code under test.

func fillVector(phase wormhole.Phase, vect *wormhole.TestVector) error {
	if nil == vect {
		return fmt.Errorf("nil vect")
	}

	key := make([]byte, 32)
	rng.Read(key) // rng.Read can not fail
	vect.Key = utils.HexBinary(key)

	side := make([]byte, 5)
	rng.Read(side)
	vect.Side = wormhole.Side(hex.EncodeToString(side))
	vect.Phase = phase

	// purpose = "wormhole:phase:" || sha256(side) || sha256(phase)
	sideDigest := sha256.Sum256([]byte(vect.Side))
	phaseDigest := sha256.Sum256([]byte(phase))
	purpose := append([]byte("wormhole:phase:"), sideDigest[:]...)
	purpose = append(purpose, phaseDigest[:]...)
	vect.Purpose = utils.HexBinary(purpose)

	phaseKey, err := expand(key, purpose)
	if nil != err {
		return fmt.Errorf("Failed deriving phase key, got error %w", err)
	}
	vect.PhaseKey = utils.HexBinary(phaseKey)

	verifier, err := expand(key, []byte("wormhole:verifier"))
	if nil != err {
		return fmt.Errorf("Failed deriving verifier, got error %w", err)
	}
	vect.Verifier = utils.HexBinary(verifier)

	return nil
}

// expand returns 32 bytes of HKDF-SHA256 output with empty salt.
func expand(ikm, info []byte) ([]byte, error) {
	out := make([]byte, 32)
	_, err := io.ReadFull(hkdf.New(sha256.New, ikm, nil, info), out)
	if nil != err {
		return nil, fmt.Errorf("Failed HKDF key filling, got error %w", err)
	}
	return out, nil
}

func init() {
	var seed [32]byte
	copy(seed[:], []byte("wormhole_KDF_vectors"))
	rng = rand.NewChaCha8(seed)
}
