package wormhole

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// KeySize is the size of the keys protecting phase messages.
	KeySize = 32

	// NonceSize is the size of the nonce prefixing every ciphertext.
	NonceSize = 24
)

// Encrypt seals plaintext under key with a fresh random nonce.
// It returns nonce ∥ secretbox output.
func Encrypt(key *[KeySize]byte, plaintext []byte) ([]byte, error) {
	var nonce [NonceSize]byte
	_, err := io.ReadFull(rand.Reader, nonce[:])
	if nil != err {
		return nil, wrapError(err, "failed generating nonce")
	}
	return encryptWithNonce(key, &nonce, plaintext), nil
}

func encryptWithNonce(key *[KeySize]byte, nonce *[NonceSize]byte, plaintext []byte) []byte {
	out := make([]byte, NonceSize, NonceSize+len(plaintext)+secretbox.Overhead)
	copy(out, nonce[:])
	return secretbox.Seal(out, plaintext, nonce, key)
}

// Decrypt opens data produced by Encrypt.
// It errors with ErrInvalidNonce if data is shorter than NonceSize and with ErrCouldNotDecrypt
// if authentication fails, in which case no plaintext is returned.
func Decrypt(key *[KeySize]byte, data []byte) ([]byte, error) {
	if len(data) < NonceSize {
		return nil, flagError(ErrInvalidNonce, nil, "ciphertext size %d < %d", len(data), NonceSize)
	}
	var nonce [NonceSize]byte
	copy(nonce[:], data[:NonceSize])

	plaintext, ok := secretbox.Open(nil, data[NonceSize:], &nonce, key)
	if !ok {
		return nil, flagError(ErrCouldNotDecrypt, nil, "failed secretbox authentication")
	}
	if nil == plaintext {
		plaintext = []byte{}
	}
	return plaintext, nil
}
