package art

import (
	"math"
	"testing"
)

func TestEncodeIntegerOrderPreserving(t *testing.T) {
	values := []int64{-100, -1, 0, 1, 100, 1 << 40}
	for i := 0; i < len(values)-1; i++ {
		a := EncodeInt64(values[i])
		b := EncodeInt64(values[i+1])
		if a.Compare(b) >= 0 {
			t.Fatalf("EncodeInt64(%d) did not sort before EncodeInt64(%d)", values[i], values[i+1])
		}
	}
}

func TestEncodeUint64OrderPreserving(t *testing.T) {
	a := EncodeUint64(5)
	b := EncodeUint64(6)
	c := EncodeUint64(1 << 63)
	if a.Compare(b) >= 0 || b.Compare(c) >= 0 {
		t.Fatalf("uint64 encoding broke monotonicity")
	}
}

func TestEncodeFloat64OrderPreserving(t *testing.T) {
	values := []float64{-1000.5, -1, -0.0001, 0, 0.0001, 1, 1000.5}
	for i := 0; i < len(values)-1; i++ {
		a := EncodeFloat64(values[i])
		b := EncodeFloat64(values[i+1])
		if a.Compare(b) >= 0 {
			t.Fatalf("EncodeFloat64(%v) did not sort before EncodeFloat64(%v)", values[i], values[i+1])
		}
	}
}

func TestEncodeFloat64NaNSortsLast(t *testing.T) {
	nan := EncodeFloat64(nanValue())
	inf := EncodeFloat64(math.Inf(1))
	if nan.Compare(inf) <= 0 {
		t.Fatalf("NaN encoding must sort after +Inf")
	}
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

func TestEncodeStringPrefixSortsFirst(t *testing.T) {
	a := EncodeString("foo")
	b := EncodeString("foobar")
	if a.Compare(b) >= 0 {
		t.Fatalf("a strict prefix must sort before the longer string")
	}
}

func TestEncodeBool(t *testing.T) {
	if EncodeBool(false).Compare(EncodeBool(true)) >= 0 {
		t.Fatalf("false must sort before true")
	}
}
