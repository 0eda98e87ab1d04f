package spake2

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"testing"

	"code.wormhole.org/golang/pkg/algos"
)

func TestSymmetricExchange(t *testing.T) {
	for _, name := range algos.ListGroups() {
		t.Run(name, func(t *testing.T) {
			params, err := NewParamsWithGroup(name, []byte("test-app"))
			if nil != err {
				t.Fatalf("failed NewParamsWithGroup, got error %v", err)
			}

			sa, ma, err := params.Start([]byte("correct-horse"), rand.Reader)
			if nil != err {
				t.Fatalf("failed Start A, got error %v", err)
			}
			sb, mb, err := params.Start([]byte("correct-horse"), rand.Reader)
			if nil != err {
				t.Fatalf("failed Start B, got error %v", err)
			}
			if params.MessageSize() != len(ma) || SideSymmetric != ma[0] {
				t.Fatalf("failed message control, % X", ma)
			}

			ka, err := sa.Finish(mb)
			if nil != err {
				t.Fatalf("failed Finish A, got error %v", err)
			}
			kb, err := sb.Finish(ma)
			if nil != err {
				t.Fatalf("failed Finish B, got error %v", err)
			}
			if KeySize != len(ka) {
				t.Errorf("failed key size control, %d != %d", len(ka), KeySize)
			}
			if !bytes.Equal(ka, kb) {
				t.Errorf("failed key agreement\n% X\n!=\n% X", ka, kb)
			}
		})
	}
}

func TestSymmetricExchangeMismatch(t *testing.T) {
	testcases := []struct {
		name           string
		pwA, pwB       string
		appIdA, appIdB string
	}{
		{name: "password", pwA: "correct-horse", pwB: "wrong-horse", appIdA: "test-app", appIdB: "test-app"},
		{name: "appId", pwA: "correct-horse", pwB: "correct-horse", appIdA: "test-app", appIdB: "other-app"},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			pa, _ := NewParams([]byte(tc.appIdA))
			pb, _ := NewParams([]byte(tc.appIdB))
			sa, ma, _ := pa.Start([]byte(tc.pwA), rand.Reader)
			sb, mb, _ := pb.Start([]byte(tc.pwB), rand.Reader)

			ka, err := sa.Finish(mb)
			if nil != err {
				t.Fatalf("failed Finish A, got error %v", err)
			}
			kb, err := sb.Finish(ma)
			if nil != err {
				t.Fatalf("failed Finish B, got error %v", err)
			}
			if bytes.Equal(ka, kb) {
				t.Error("Oops, mismatched exchange produced equal keys")
			}
		})
	}
}

func TestFinishErrors(t *testing.T) {
	params, _ := NewParams([]byte("test-app"))

	testcases := []struct {
		name    string
		inbound func(own []byte) []byte
		flag    error
	}{
		{
			name:    "short",
			inbound: func(own []byte) []byte { return own[:10] },
			flag:    ErrInvalidMessage,
		},
		{
			name: "offsides",
			inbound: func(own []byte) []byte {
				msg := bytes.Clone(own)
				msg[0] = 'A'
				return msg
			},
			flag: ErrOffSides,
		},
		{
			name: "identity",
			inbound: func(_ []byte) []byte {
				msg := make([]byte, 33)
				msg[0] = SideSymmetric
				msg[1] = 1
				return msg
			},
			flag: ErrInvalidMessage,
		},
		{
			name:    "reflection",
			inbound: func(own []byte) []byte { return bytes.Clone(own) },
			flag:    ErrReflection,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			state, own, err := params.Start([]byte("correct-horse"), rand.Reader)
			if nil != err {
				t.Fatalf("failed Start, got error %v", err)
			}
			_, err = state.Finish(tc.inbound(own))
			if !errors.Is(err, tc.flag) {
				t.Errorf("failed error control, got %v", err)
			}
			if !errors.Is(err, Error) {
				t.Errorf("error does not wrap spake2.Error, got %v", err)
			}
		})
	}
}

func TestFinishOnlyOnce(t *testing.T) {
	params, _ := NewParams([]byte("test-app"))
	sa, _, _ := params.Start([]byte("pw"), rand.Reader)
	_, mb, _ := params.Start([]byte("pw"), rand.Reader)

	_, err := sa.Finish(mb)
	if nil != err {
		t.Fatalf("failed first Finish, got error %v", err)
	}
	_, err = sa.Finish(mb)
	if nil == err {
		t.Error("Oops, second Finish succeeded")
	}
}

func TestParamsErrors(t *testing.T) {
	_, err := NewParamsWithGroup("P256", nil)
	if nil == err {
		t.Error("Oops, NewParamsWithGroup accepted unregistered group")
	}

	var zero Params
	_, _, err = zero.Start([]byte("pw"), rand.Reader)
	if nil == err {
		t.Error("Oops, zero Params Start succeeded")
	}
}

func TestBlindingIsConstant(t *testing.T) {
	p1, _ := NewParams([]byte("app-1"))
	p2, _ := NewParams([]byte("app-2"))
	if !bytes.Equal(p1.Blinding(), p2.Blinding()) {
		t.Error("blinding element depends on the identity")
	}
	if 32 != len(p1.Blinding()) {
		t.Errorf("failed blinding size control, got %d", len(p1.Blinding()))
	}
}

type failingReader struct{}

func (_ failingReader) Read(_ []byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestStartRandFailure(t *testing.T) {
	params, _ := NewParams([]byte("test-app"))
	_, _, err := params.Start([]byte("pw"), failingReader{})
	if nil == err {
		t.Error("Oops, Start succeeded without entropy")
	}
}

// values computed with python-spake2 SPAKE2_Symmetric arithmetic, random scalars
// being read as 64 little endian bytes reduced modulo L.
func TestEd25519KnownAnswer(t *testing.T) {
	params, err := NewParams([]byte("test-app"))
	if nil != err {
		t.Fatalf("failed NewParams, got error %v", err)
	}
	expectS := mustDecodeHex("6f00dae87c1be1a73b5922ef431cd8f57879569c222d22b1cd71e8546ab8e6f1")
	if !bytes.Equal(expectS, params.Blinding()) {
		t.Fatalf("failed blinding control\n% X\n!=\n% X", params.Blinding(), expectS)
	}

	entropyA := make([]byte, 64)
	entropyB := make([]byte, 64)
	for i := range 64 {
		entropyA[i] = byte(i + 1)
		entropyB[i] = byte(i + 65)
	}
	password := []byte("correct-horse")
	sa, ma, err := params.Start(password, bytes.NewReader(entropyA))
	if nil != err {
		t.Fatalf("failed Start A, got error %v", err)
	}
	sb, mb, err := params.Start(password, bytes.NewReader(entropyB))
	if nil != err {
		t.Fatalf("failed Start B, got error %v", err)
	}

	expectMa := mustDecodeHex("531bf4e9f704447004d3f9a6affc07d0f4dc109030f79038e12290814d8feae2d8")
	expectMb := mustDecodeHex("536462802f2f0bf1d3568e49313ebd52e3243730476b566ce4f236071ebdc27492")
	if !bytes.Equal(expectMa, ma) {
		t.Errorf("failed message A control\n% X\n!=\n% X", ma, expectMa)
	}
	if !bytes.Equal(expectMb, mb) {
		t.Errorf("failed message B control\n% X\n!=\n% X", mb, expectMb)
	}

	expectKey := mustDecodeHex("a5ae4eea85f2d2c6edfbc6bb8f92df35a034607f98ff97f781bc4cb50c5b2c8c")
	ka, err := sa.Finish(mb)
	if nil != err {
		t.Fatalf("failed Finish A, got error %v", err)
	}
	kb, err := sb.Finish(ma)
	if nil != err {
		t.Fatalf("failed Finish B, got error %v", err)
	}
	if !bytes.Equal(expectKey, ka) || !bytes.Equal(expectKey, kb) {
		t.Errorf("failed key control\n% X\n% X\n!=\n% X", ka, kb, expectKey)
	}
}

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if nil != err {
		panic(err)
	}
	return b
}
