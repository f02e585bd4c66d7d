package art

import (
	"math"
)

// Encoding scalar Go values into ARTKey bytes such that byte-lexicographic
// order on the result matches the natural order of the source value,
// grounded on the reference Radix template's FlipSign/EncodeFloat/BSwap
// helpers: integers get their sign bit flipped then are byte-swapped to
// big-endian, floats get a sign-dependent bit transform, and strings get a
// trailing NUL so a prefix of a longer equal string still sorts first.

func EncodeBool(v bool) ARTKey {
	if v {
		return ARTKey{1}
	}
	return ARTKey{0}
}

func EncodeInt8(v int8) ARTKey {
	return ARTKey{byte(uint8(v) ^ 0x80)}
}

func EncodeUint8(v uint8) ARTKey {
	return ARTKey{v}
}

func EncodeInt16(v int16) ARTKey {
	u := uint16(v) ^ 0x8000
	return beBytes16(u)
}

func EncodeUint16(v uint16) ARTKey {
	return beBytes16(v)
}

func EncodeInt32(v int32) ARTKey {
	u := uint32(v) ^ 0x80000000
	return beBytes32(u)
}

func EncodeUint32(v uint32) ARTKey {
	return beBytes32(v)
}

func EncodeInt64(v int64) ARTKey {
	u := uint64(v) ^ 0x8000000000000000
	return beBytes64(u)
}

func EncodeUint64(v uint64) ARTKey {
	return beBytes64(v)
}

// EncodeFloat32 maps v's IEEE-754 bits so that byte order matches float
// order: flip the sign bit for non-negatives, flip every bit for negatives.
// NaN is mapped past +Inf so it sorts as the maximum value, matching the
// reference EncodeFloat's NaN sentinel handling.
func EncodeFloat32(v float32) ARTKey {
	bits32 := math.Float32bits(v)
	if v != v { // NaN
		bits32 = 0xFFFFFFFF
	} else if bits32&0x80000000 != 0 {
		bits32 = ^bits32
	} else {
		bits32 |= 0x80000000
	}
	return beBytes32(bits32)
}

// EncodeFloat64 is EncodeFloat32's double-precision counterpart.
func EncodeFloat64(v float64) ARTKey {
	bits64 := math.Float64bits(v)
	if v != v { // NaN
		bits64 = 0xFFFFFFFFFFFFFFFF
	} else if bits64&0x8000000000000000 != 0 {
		bits64 = ^bits64
	} else {
		bits64 |= 0x8000000000000000
	}
	return beBytes64(bits64)
}

// EncodeString appends a trailing NUL so that a key which is a strict
// prefix of another still compares as smaller, matching the reference
// string encoding (ART keys may not otherwise embed internal NULs; see
// spec §6 edge cases).
func EncodeString(v string) ARTKey {
	out := make([]byte, len(v)+1)
	copy(out, v)
	out[len(v)] = 0
	return out
}

func beBytes16(u uint16) ARTKey {
	b := make([]byte, 2)
	b[0] = byte(u >> 8)
	b[1] = byte(u)
	return b
}

func beBytes32(u uint32) ARTKey {
	b := make([]byte, 4)
	b[0] = byte(u >> 24)
	b[1] = byte(u >> 16)
	b[2] = byte(u >> 8)
	b[3] = byte(u)
	return b
}

func beBytes64(u uint64) ARTKey {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> uint(56-8*i))
	}
	return b
}
