package algos

import (
	"bytes"
	"io"
	"math/big"
	"slices"

	"filippo.io/edwards25519"
)

const ed25519ElementSize = 32

var (
	// fieldPrime is 2^255 - 19.
	fieldPrime = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(19))

	// orderMinusOne is L - 1 in little endian, L being the prime order of the Ed25519 base point.
	orderMinusOne = mustScalar([]byte{
		0xec, 0xd3, 0xf5, 0x5c, 0x1a, 0x63, 0x12, 0x58,
		0xd6, 0x9c, 0xf7, 0xa2, 0xde, 0xf9, 0xde, 0x14,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10,
	})
)

// ed25519Group reproduces python-spake2 ParamsEd25519 so that messages interoperate
// with magic-wormhole peers.
type ed25519Group struct{}

func (_ ed25519Group) Name() string {
	return GROUP_ED25519
}

func (_ ed25519Group) ElementSize() int {
	return ed25519ElementSize
}

func (_ ed25519Group) RandomScalar(rand io.Reader) (Scalar, error) {
	var buf [64]byte
	defer clear(buf[:])
	_, err := io.ReadFull(rand, buf[:])
	if nil != err {
		return nil, wrapError(err, "failed reading random bytes")
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(buf[:])
	if nil != err {
		return nil, wrapError(err, "failed SetUniformBytes")
	}
	return &ed25519Scalar{s: s}, nil
}

// PasswordScalar interprets 48 bytes of HKDF output as a big endian integer and reduces it modulo L.
func (_ ed25519Group) PasswordScalar(pw []byte) (Scalar, error) {
	h, err := expand(pw, infoPassword, ed25519ElementSize+16)
	if nil != err {
		return nil, err
	}
	defer clear(h)

	// SetUniformBytes expects 64 little endian bytes
	var wide [64]byte
	defer clear(wide[:])
	copy(wide[:], h)
	slices.Reverse(wide[:len(h)])
	s, err := edwards25519.NewScalar().SetUniformBytes(wide[:])
	if nil != err {
		return nil, wrapError(err, "failed SetUniformBytes")
	}
	return &ed25519Scalar{s: s}, nil
}

// ArbitraryElement derives a candidate y coordinate from seed and increments it until it
// decodes to a curve point, which is then moved to the prime order subgroup by clearing the cofactor.
func (_ ed25519Group) ArbitraryElement(seed []byte) (Element, error) {
	h, err := expand(seed, infoArbitraryElement, ed25519ElementSize+16)
	if nil != err {
		return nil, err
	}
	y := new(big.Int).SetBytes(h)
	y.Mod(y, fieldPrime)

	one := big.NewInt(1)
	identity := edwards25519.NewIdentityPoint()
	var enc [ed25519ElementSize]byte
	for {
		// sign bit left to 0 selects the even x
		y.FillBytes(enc[:])
		slices.Reverse(enc[:])
		p, err := new(edwards25519.Point).SetBytes(enc[:])
		if nil == err {
			p8 := edwards25519.NewIdentityPoint().MultByCofactor(p)
			if 1 != p8.Equal(identity) {
				return &ed25519Element{p: p8}, nil
			}
		}
		y.Add(y, one)
		y.Mod(y, fieldPrime)
	}
}

func (_ ed25519Group) BaseMult(s Scalar) Element {
	return &ed25519Element{p: edwards25519.NewIdentityPoint().ScalarBaseMult(toEd25519Scalar(s))}
}

func (_ ed25519Group) DecodeElement(data []byte) (Element, error) {
	if ed25519ElementSize != len(data) {
		return nil, invalidElement("invalid element size %d != %d", len(data), ed25519ElementSize)
	}
	p, err := new(edwards25519.Point).SetBytes(data)
	if nil != err {
		return nil, invalidElement("point is not on curve")
	}
	if !bytes.Equal(p.Bytes(), data) {
		return nil, invalidElement("non canonical point encoding")
	}
	if 1 == p.Equal(edwards25519.NewIdentityPoint()) {
		return nil, invalidElement("point is the identity")
	}

	// [L]P = [L-1]P + P shall be the identity
	lp := edwards25519.NewIdentityPoint().ScalarMult(orderMinusOne, p)
	lp.Add(lp, p)
	if 1 != lp.Equal(edwards25519.NewIdentityPoint()) {
		return nil, invalidElement("point is not in the prime order subgroup")
	}

	return &ed25519Element{p: p}, nil
}

type ed25519Scalar struct {
	s *edwards25519.Scalar
}

func (self *ed25519Scalar) Negate() Scalar {
	return &ed25519Scalar{s: edwards25519.NewScalar().Negate(self.s)}
}

func (self *ed25519Scalar) Clear() {
	self.s.Subtract(self.s, self.s)
}

type ed25519Element struct {
	p *edwards25519.Point
}

func (self *ed25519Element) Add(e Element) Element {
	return &ed25519Element{p: edwards25519.NewIdentityPoint().Add(self.p, toEd25519Point(e))}
}

func (self *ed25519Element) ScalarMult(s Scalar) Element {
	return &ed25519Element{p: edwards25519.NewIdentityPoint().ScalarMult(toEd25519Scalar(s), self.p)}
}

func (self *ed25519Element) Equal(e Element) bool {
	other, ok := e.(*ed25519Element)
	return ok && 1 == self.p.Equal(other.p)
}

func (self *ed25519Element) Bytes() []byte {
	return self.p.Bytes()
}

func toEd25519Scalar(s Scalar) *edwards25519.Scalar {
	es, ok := s.(*ed25519Scalar)
	if !ok {
		// mixing groups is an implementation error
		panic("algos: scalar does not belong to the Ed25519 group")
	}
	return es.s
}

func toEd25519Point(e Element) *edwards25519.Point {
	ee, ok := e.(*ed25519Element)
	if !ok {
		panic("algos: element does not belong to the Ed25519 group")
	}
	return ee.p
}

func mustScalar(le []byte) *edwards25519.Scalar {
	s, err := edwards25519.NewScalar().SetCanonicalBytes(le)
	if nil != err {
		panic(err)
	}
	return s
}
