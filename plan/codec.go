package plan

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/wippyai/ffi-bridge/errors"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("plan: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// EncodeCBOR serializes p in canonical CBOR. Equal plans encode to equal
// bytes.
func EncodeCBOR(p *Plan) ([]byte, error) {
	data, err := cborEncMode.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(errors.PhasePlan, errors.KindInvalidData, err, "encode plan")
	}
	return data, nil
}

// DecodeCBOR deserializes a plan.
func DecodeCBOR(data []byte) (*Plan, error) {
	var p Plan
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, errors.ParseFailed("plan", err)
	}
	return &p, nil
}
