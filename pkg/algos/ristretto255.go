package algos

import (
	"io"

	"github.com/gtank/ristretto255"
)

const ristretto255ElementSize = 32

// ristretto255Group is a prime order group without cofactor concerns.
// It does not interoperate with python-spake2 peers.
type ristretto255Group struct{}

func (_ ristretto255Group) Name() string {
	return GROUP_RISTRETTO255
}

func (_ ristretto255Group) ElementSize() int {
	return ristretto255ElementSize
}

func (_ ristretto255Group) RandomScalar(rand io.Reader) (Scalar, error) {
	var buf [64]byte
	defer clear(buf[:])
	_, err := io.ReadFull(rand, buf[:])
	if nil != err {
		return nil, wrapError(err, "failed reading random bytes")
	}
	s, err := ristretto255.NewScalar().SetUniformBytes(buf[:])
	if nil != err {
		return nil, wrapError(err, "failed SetUniformBytes")
	}
	return &ristretto255Scalar{s: s}, nil
}

func (_ ristretto255Group) PasswordScalar(pw []byte) (Scalar, error) {
	h, err := expand(pw, infoPassword, 64)
	if nil != err {
		return nil, err
	}
	defer clear(h)
	s, err := ristretto255.NewScalar().SetUniformBytes(h)
	if nil != err {
		return nil, wrapError(err, "failed SetUniformBytes")
	}
	return &ristretto255Scalar{s: s}, nil
}

func (_ ristretto255Group) ArbitraryElement(seed []byte) (Element, error) {
	h, err := expand(seed, infoArbitraryElement, 64)
	if nil != err {
		return nil, err
	}
	e, err := ristretto255.NewIdentityElement().SetUniformBytes(h)
	if nil != err {
		return nil, wrapError(err, "failed SetUniformBytes")
	}
	return &ristretto255Element{e: e}, nil
}

func (_ ristretto255Group) BaseMult(s Scalar) Element {
	return &ristretto255Element{e: ristretto255.NewIdentityElement().ScalarBaseMult(toRistretto255Scalar(s))}
}

func (_ ristretto255Group) DecodeElement(data []byte) (Element, error) {
	if ristretto255ElementSize != len(data) {
		return nil, invalidElement("invalid element size %d != %d", len(data), ristretto255ElementSize)
	}
	e, err := ristretto255.NewIdentityElement().SetCanonicalBytes(data)
	if nil != err {
		return nil, invalidElement("non canonical element encoding")
	}
	if 1 == e.Equal(ristretto255.NewIdentityElement()) {
		return nil, invalidElement("element is the identity")
	}
	return &ristretto255Element{e: e}, nil
}

type ristretto255Scalar struct {
	s *ristretto255.Scalar
}

func (self *ristretto255Scalar) Negate() Scalar {
	return &ristretto255Scalar{s: ristretto255.NewScalar().Negate(self.s)}
}

func (self *ristretto255Scalar) Clear() {
	self.s.Subtract(self.s, self.s)
}

type ristretto255Element struct {
	e *ristretto255.Element
}

func (self *ristretto255Element) Add(e Element) Element {
	return &ristretto255Element{e: ristretto255.NewIdentityElement().Add(self.e, toRistretto255Element(e))}
}

func (self *ristretto255Element) ScalarMult(s Scalar) Element {
	return &ristretto255Element{e: ristretto255.NewIdentityElement().ScalarMult(toRistretto255Scalar(s), self.e)}
}

func (self *ristretto255Element) Equal(e Element) bool {
	other, ok := e.(*ristretto255Element)
	return ok && 1 == self.e.Equal(other.e)
}

func (self *ristretto255Element) Bytes() []byte {
	return self.e.Bytes()
}

func toRistretto255Scalar(s Scalar) *ristretto255.Scalar {
	rs, ok := s.(*ristretto255Scalar)
	if !ok {
		panic("algos: scalar does not belong to the Ristretto255 group")
	}
	return rs.s
}

func toRistretto255Element(e Element) *ristretto255.Element {
	re, ok := e.(*ristretto255Element)
	if !ok {
		panic("algos: element does not belong to the Ristretto255 group")
	}
	return re.e
}
