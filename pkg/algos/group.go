// Package algos provides the prime order groups usable by the symmetric SPAKE2 exchange.
package algos

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"code.wormhole.org/golang/internal/utils"
)

const (
	GROUP_ED25519      = "Ed25519"
	GROUP_RISTRETTO255 = "Ristretto255"
)

// HKDF info strings shared with python-spake2.
const (
	infoPassword         = "SPAKE2 pw"
	infoArbitraryElement = "SPAKE2 arbitrary element"
)

// Scalar is an integer modulo the order of a Group.
//
// Scalar values produced by a Group can only be combined with Element values of the same Group.
type Scalar interface {
	// Negate returns a new Scalar equal to -self.
	Negate() Scalar

	// Clear sets the Scalar to zero.
	Clear()
}

// Element is a member of the prime order subgroup of a Group.
type Element interface {
	// Add returns a new Element equal to self + e.
	Add(e Element) Element

	// ScalarMult returns a new Element equal to s * self.
	ScalarMult(s Scalar) Element

	// Equal returns true if self and e encode the same Element.
	Equal(e Element) bool

	// Bytes returns the canonical encoding of the Element.
	Bytes() []byte
}

// Group exposes the operations needed by SPAKE2.
type Group interface {
	// Name returns the Group registry name.
	Name() string

	// ElementSize returns the size of Element encodings.
	ElementSize() int

	// RandomScalar returns a uniformly distributed Scalar.
	RandomScalar(rand io.Reader) (Scalar, error)

	// PasswordScalar deterministically maps pw to a Scalar.
	PasswordScalar(pw []byte) (Scalar, error)

	// ArbitraryElement deterministically maps seed to an Element whose discrete logarithm is unknown.
	ArbitraryElement(seed []byte) (Element, error)

	// BaseMult returns s * Generator.
	BaseMult(s Scalar) Element

	// DecodeElement decodes data. It errors with ErrInvalidElement if data is not the canonical
	// encoding of a non identity Element of the prime order subgroup.
	DecodeElement(data []byte) (Element, error)
}

var groupRegistry *utils.Registry[string, Group]

// MustRegisterGroup adds group to the Group registry. It panics if name is already in use or group is invalid.
func MustRegisterGroup(name string, group Group) {
	err := RegisterGroup(name, group)
	if nil != err {
		panic(err)
	}
}

// RegisterGroup adds group to the Group registry. It errors if name is already in use or group is invalid.
func RegisterGroup(name string, group Group) error {
	if nil == group {
		return newError("nil group can not be registered")
	}
	return wrapError(
		utils.RegistrySet(groupRegistry, name, group),
		"failed registering Group algorithm, %s",
		name,
	)
}

// GetGroup loads Group implementation from the registry. It errors if no group was registered with name.
func GetGroup(name string) (Group, error) {
	group, found := utils.RegistryGet(groupRegistry, name)
	if !found {
		return group, newError("unsupported Group algorithm, %s", name)
	}
	return group, nil
}

// ListGroups returns the sorted names of the registered Group algorithms.
func ListGroups() []string {
	return utils.RegistryKeys(groupRegistry)
}

// expand returns size bytes of HKDF-SHA256(ikm, salt="", info).
func expand(ikm []byte, info string, size int) ([]byte, error) {
	rv := make([]byte, size)
	rdr := hkdf.New(sha256.New, ikm, nil, []byte(info))
	_, err := io.ReadFull(rdr, rv)
	if nil != err {
		return nil, wrapError(err, "failed HKDF expansion")
	}
	return rv, nil
}

func init() {
	groupRegistry = utils.NewRegistry[string, Group]()
	MustRegisterGroup(GROUP_ED25519, ed25519Group{})
	MustRegisterGroup(GROUP_RISTRETTO255, ristretto255Group{})
}
