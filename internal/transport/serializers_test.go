package transport

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/go-test/deep"

	"code.wormhole.org/golang/pkg/wormhole"
)

type namedSerializer struct {
	name       string
	serializer Serializer
}

var serializers = []namedSerializer{
	{"JSON", JSONSerializer{}},
	{"CBOR_Default", NewCBORSerializer()},
	{"CBOR_CTAP2", NewCTAP2Serializer()},
}

func validFrame() Frame {
	return Frame{
		Type:  FrameTypeMessage,
		Phase: wormhole.PhasePake,
		Side:  "0123456789",
		Body:  []byte(`{"pake_v1":"53"}`),
	}
}

func TestSerializerFrameRoundTrip(t *testing.T) {
	frames := []Frame{
		validFrame(),
		{Type: FrameTypeMessage, Phase: wormhole.PhaseVersion, Side: "abcdef0123", Body: []byte{0, 1, 2, 0xff}},
		{Type: FrameTypeMessage, Phase: wormhole.NumberedPhase(12), Side: "abcdef0123", Body: []byte{}},
	}

	for _, s := range serializers {
		t.Run(s.name, func(t *testing.T) {
			srz := WrapInSafeSerializer(s.serializer)
			for pos, frame := range frames {
				data, err := srz.Marshal(frame)
				if nil != err {
					t.Fatalf("#%d: failed Marshal, got error %v", pos, err)
				}
				var restored Frame
				err = srz.Unmarshal(data, &restored)
				if nil != err {
					t.Fatalf("#%d: failed Unmarshal, got error %v", pos, err)
				}
				if !bytes.Equal(frame.Body, restored.Body) {
					t.Errorf("#%d: failed Body control, % X != % X", pos, restored.Body, frame.Body)
				}
				restored.Body, frame.Body = nil, nil
				if diff := deep.Equal(frame, restored); nil != diff {
					t.Errorf("#%d: failed round trip: %v", pos, diff)
				}
			}
		})
	}
}

func TestFrameJSONWireFormat(t *testing.T) {
	data, err := JSONSerializer{}.Marshal(validFrame())
	if nil != err {
		t.Fatalf("failed Marshal, got error %v", err)
	}
	expect := `{"type":"message","phase":"pake","side":"0123456789","body":"7b2270616b655f7631223a223533227d"}`
	if expect != string(data) {
		t.Errorf("failed wire format control\n%s\n!=\n%s", data, expect)
	}

	// frames produced by python json.dumps
	pydata := []byte(`{"phase": "pake", "body": "7b2270616b655f7631223a223533227d", "side": "0123456789", "type": "message"}`)
	var frame Frame
	err = WrapInSafeSerializer(JSONSerializer{}).Unmarshal(pydata, &frame)
	if nil != err {
		t.Fatalf("failed Unmarshal, got error %v", err)
	}
	if !reflect.DeepEqual(validFrame(), frame) {
		t.Errorf("failed python frame control, got %+v", frame)
	}
}

func TestSafeSerializerValidation(t *testing.T) {
	invalids := map[string]func(f *Frame){
		"type":      func(f *Frame) { f.Type = "ack" },
		"phase":     func(f *Frame) { f.Phase = "007" },
		"emptySide": func(f *Frame) { f.Side = "" },
	}

	for _, s := range serializers {
		srz := WrapInSafeSerializer(s.serializer)
		for name, mutate := range invalids {
			t.Run(s.name+"-"+name, func(t *testing.T) {
				frame := validFrame()
				mutate(&frame)
				_, err := srz.Marshal(frame)
				if !errors.Is(err, ValidationError) {
					t.Errorf("failed Marshal ValidationError control, got %v", err)
				}

				data, err := s.serializer.Marshal(frame)
				if nil != err {
					t.Fatalf("failed raw Marshal, got error %v", err)
				}
				var restored Frame
				err = srz.Unmarshal(data, &restored)
				if !errors.Is(err, ValidationError) {
					t.Errorf("failed Unmarshal ValidationError control, got %v", err)
				}
			})
		}
	}
}

func TestSafeSerializerInvalidData(t *testing.T) {
	for _, s := range serializers {
		t.Run(s.name, func(t *testing.T) {
			srz := WrapInSafeSerializer(s.serializer)
			var frame Frame
			err := srz.Unmarshal([]byte{0xff, 0xff, 0xff}, &frame)
			if !errors.Is(err, SerializationError) {
				t.Errorf("failed SerializationError control, got %v", err)
			}
		})
	}
}

func TestWrapInSafeSerializer(t *testing.T) {
	for _, s := range serializers {
		wrapped1 := WrapInSafeSerializer(s.serializer)
		wrapped2 := WrapInSafeSerializer(wrapped1)
		if wrapped2 != wrapped1 {
			t.Errorf("%s: WrapInSafeSerializer did not return the SafeSerializer it was given", s.name)
		}
	}
}

func TestCTAP2Canonical(t *testing.T) {
	// CTAP2 encoding sorts map keys, whatever the insertion order
	srz := NewCTAP2Serializer()
	m1 := map[string]int{"b": 2, "a": 1, "ccc": 3}
	m2 := map[string]int{"ccc": 3, "a": 1, "b": 2}
	d1, _ := srz.Marshal(m1)
	d2, _ := srz.Marshal(m2)
	if !bytes.Equal(d1, d2) {
		t.Errorf("CTAP2 encoding is not canonical\n% X\n% X", d1, d2)
	}
}
