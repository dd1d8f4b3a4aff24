package identity

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/zeebo/xxh3"
)

// Key field tags. A tag never changes meaning.
const (
	tagNil    byte = 0x00
	tagBool   byte = 0x01
	tagInt    byte = 0x02
	tagUint   byte = 0x03
	tagFloat  byte = 0x04
	tagString byte = 0x05
	tagBytes  byte = 0x06
	tagOther  byte = 0x07
)

// KeyHash hashes key fields over a tagged canonical encoding. Signed and
// unsigned integers of any width encode as 64 bits, float32 widens to
// float64, -0 encodes as 0 and every NaN encodes alike.
func KeyHash(fields ...any) uint64 {
	h := xxh3.New()
	var buf [9]byte
	for _, f := range fields {
		c := canonical(f)
		n := encodeField(buf[:], c)
		_, _ = h.Write(buf[:n])
		switch v := c.(type) {
		case string:
			writeLen(h, len(v))
			_, _ = h.WriteString(v)
		case []byte:
			writeLen(h, len(v))
			_, _ = h.Write(v)
		case other:
			writeLen(h, len(v.typ))
			_, _ = h.WriteString(v.typ)
			writeLen(h, len(v.repr))
			_, _ = h.WriteString(v.repr)
		}
	}
	return h.Sum64()
}

// KeyEqual reports whether two key field lists are equal under the same
// canonical forms KeyHash uses.
func KeyEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := canonical(a[i]), canonical(b[i])
		switch va := ca.(type) {
		case []byte:
			vb, ok := cb.([]byte)
			if !ok || string(va) != string(vb) {
				return false
			}
		case float64:
			vb, ok := cb.(float64)
			if !ok || !(va == vb || (math.IsNaN(va) && math.IsNaN(vb))) {
				return false
			}
		default:
			if ca != cb {
				return false
			}
		}
	}
	return true
}

type other struct {
	typ  string
	repr string
}

// canonical maps a field to one of nil, bool, int64, uint64, float64,
// string, []byte or other.
func canonical(f any) any {
	switch v := f.(type) {
	case nil:
		return nil
	case bool, string, []byte:
		return v
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint:
		return uint64(v)
	case uint8:
		return uint64(v)
	case uint16:
		return uint64(v)
	case uint32:
		return uint64(v)
	case uint64:
		return v
	case uintptr:
		return uint64(v)
	case float32:
		return normFloat(float64(v))
	case float64:
		return normFloat(v)
	case fmt.Stringer:
		return other{typ: reflect.TypeOf(f).String(), repr: v.String()}
	}
	return other{typ: reflect.TypeOf(f).String(), repr: fmt.Sprintf("%v", f)}
}

func normFloat(v float64) float64 {
	if v == 0 {
		return 0
	}
	if math.IsNaN(v) {
		return math.NaN()
	}
	return v
}

// encodeField writes the tag and any fixed-width payload of a canonical
// field into buf and returns the byte count.
func encodeField(buf []byte, c any) int {
	switch v := c.(type) {
	case nil:
		buf[0] = tagNil
		return 1
	case bool:
		buf[0] = tagBool
		buf[1] = 0
		if v {
			buf[1] = 1
		}
		return 2
	case int64:
		buf[0] = tagInt
		binary.LittleEndian.PutUint64(buf[1:], uint64(v))
		return 9
	case uint64:
		buf[0] = tagUint
		binary.LittleEndian.PutUint64(buf[1:], v)
		return 9
	case float64:
		buf[0] = tagFloat
		bits := math.Float64bits(v)
		if math.IsNaN(v) {
			bits = 0x7ff8000000000001
		}
		binary.LittleEndian.PutUint64(buf[1:], bits)
		return 9
	case string:
		buf[0] = tagString
		return 1
	case []byte:
		buf[0] = tagBytes
		return 1
	}
	buf[0] = tagOther
	return 1
}

func writeLen(h *xxh3.Hasher, n int) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(n))
	_, _ = h.Write(b[:])
}
