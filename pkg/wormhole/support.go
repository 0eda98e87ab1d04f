package wormhole

import (
	"encoding/json"
	"os"

	"code.wormhole.org/golang/internal/utils"
)

// TestVector holds key derivation test vector fields.
type TestVector struct {
	Key      utils.HexBinary `json:"key"`
	Side     Side            `json:"side"`
	Phase    Phase           `json:"phase"`
	Purpose  utils.HexBinary `json:"purpose"`
	PhaseKey utils.HexBinary `json:"phase_key"`
	Verifier utils.HexBinary `json:"verifier"`
}

// LoadTestVectors loads test vectors from json file at srcpath.
func LoadTestVectors(srcpath string) ([]TestVector, error) {
	src, err := os.Open(srcpath)
	if nil != err {
		return nil, wrapError(err, "failed opening file %s", srcpath)
	}
	defer src.Close()
	dec := json.NewDecoder(src)
	rv := []TestVector{}
	err = dec.Decode(&rv)
	return rv, wrapError(err, "failed decoding json test vectors")
}
