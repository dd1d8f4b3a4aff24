package abi

import (
	"math"
	"reflect"
)

// MaxVecLength caps the capacity a foreign vector may grow to.
const MaxVecLength = 1 << 27

// SafeMulU32 multiplies a and b, reporting false on overflow. Vector
// buffers are sized with it.
func SafeMulU32(a, b uint32) (uint32, bool) {
	if b != 0 && a > math.MaxUint32/b {
		return 0, false
	}
	return a * b, true
}

// TypeName names the Go type of a value in error messages; nil is "nil".
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}

// AlignTo rounds offset up to a power-of-two alignment. Zero leaves it as is.
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}
