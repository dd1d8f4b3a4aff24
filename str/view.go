package str

import (
	"unicode/utf8"

	"github.com/wippyai/ffi-bridge/abi"
	"github.com/wippyai/ffi-bridge/errors"
)

// View is a borrowed slice of a foreign string.
type View struct {
	b   *Bridge
	raw abi.Str
}

// Raw returns the boundary aggregate.
func (v View) Raw() abi.Str { return v.raw }

func (v View) Len() uint32 { return v.raw.Len }

func (v View) IsEmpty() bool { return v.raw.IsEmpty() }

// Bytes copies the viewed bytes.
func (v View) Bytes() []byte {
	data, err := v.b.heap.ReadBytes(v.raw.Start, v.raw.Len)
	if err != nil {
		errors.Trap(errors.Wrap(errors.PhaseDecode, errors.KindOutOfBounds, err, ViewName))
	}
	return data
}

// String copies the viewed text. It traps when the bytes are not valid
// UTF-8.
func (v View) String() string {
	return string(v.validate(errors.PhaseDecode))
}

// Equal compares contents through the foreign view equality.
func (v View) Equal(o View) bool { return v.b.equal(v.raw, o.raw) }

func (v View) validate(phase errors.Phase) []byte {
	data := v.Bytes()
	if !utf8.Valid(data) {
		errors.Trap(errors.InvalidUTF8(phase, []string{ViewName}, data))
	}
	return data
}
