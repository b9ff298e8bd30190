package mailbox

import (
	"math"
	"testing"
)

func Test_Int32_RoundTrip(t *testing.T) {
	cases := map[string]int32{
		"zero":     0,
		"positive": 1234,
		"negative": -1234,
		"max":      math.MaxInt32,
		"min":      math.MinInt32,
		"neg-one":  -1,
	}
	for name, v := range cases {
		enc := encodeValue(7, Int32Value(v))
		if enc[0] != 7 {
			t.Fatalf("%s: index byte = %d, want 7", name, enc[0])
		}
		got, n, err := decodeValue(KindInt32, enc[1:])
		if err != nil {
			t.Fatalf("%s: decode error: %v", name, err)
		}
		if n != 4 {
			t.Fatalf("%s: consumed %d bytes, want 4", name, n)
		}
		gv, ok := got.Int32()
		if !ok {
			t.Fatalf("%s: decoded value is not KindInt32", name)
		}
		if gv != v {
			t.Errorf("%s: got %d, want %d", name, gv, v)
		}
	}
}

func Test_Bool_RoundTrip(t *testing.T) {
	for _, v := range []bool{true, false} {
		enc := encodeValue(3, BoolValue(v))
		got, n, err := decodeValue(KindBool, enc[1:])
		if err != nil {
			t.Fatalf("%v: decode error: %v", v, err)
		}
		if n != 1 {
			t.Fatalf("%v: consumed %d bytes, want 1", v, n)
		}
		gv, ok := got.Bool()
		if !ok {
			t.Fatalf("%v: decoded value is not KindBool", v)
		}
		if gv != v {
			t.Errorf("got %v, want %v", gv, v)
		}
	}
}

// Test_Float32_RoundTrip checks bitwise identity, not numeric equality: NaN
// payloads must survive the wire unchanged even though NaN != NaN under
// ordinary float comparison, per spec §8's "Typed codec identity" property.
func Test_Float32_RoundTrip(t *testing.T) {
	cases := map[string]uint32{
		"zero":              0x00000000,
		"five-point-five":   0x40B00000, // 5.5
		"negative":          0xC0B00000, // -5.5
		"smallest-denormal": 0x00000001,
		"quiet-nan":         0x7fc00000,
		"neg-infinity":      0xFF800000,
	}
	for name, bits := range cases {
		v := math.Float32frombits(bits)
		enc := encodeValue(1, Float32Value(v))
		got, n, err := decodeValue(KindFloat32, enc[1:])
		if err != nil {
			t.Fatalf("%s: decode error: %v", name, err)
		}
		if n != 4 {
			t.Fatalf("%s: consumed %d bytes, want 4", name, n)
		}
		gv, ok := got.Float32()
		if !ok {
			t.Fatalf("%s: decoded value is not KindFloat32", name)
		}
		if math.Float32bits(gv) != bits {
			t.Errorf("%s: got bits %#08x, want %#08x", name, math.Float32bits(gv), bits)
		}
	}
}

func Test_EncodeValue_WireLayout(t *testing.T) {
	// 5.5 as float32 is 0x40B00000; little-endian on the wire per §4.4.5.
	enc := encodeValue(2, Float32Value(5.5))
	want := []byte{2, 0x00, 0x00, 0xB0, 0x40}
	if len(enc) != len(want) {
		t.Fatalf("length = %d, want %d", len(enc), len(want))
	}
	for i := range want {
		if enc[i] != want[i] {
			t.Errorf("byte %d = %#02x, want %#02x", i, enc[i], want[i])
		}
	}
}

func Test_DecodeValue_ShortBuffer(t *testing.T) {
	if _, _, err := decodeValue(KindInt32, []byte{1, 2}); err == nil {
		t.Fatal("expected error decoding a truncated int32")
	}
	if _, _, err := decodeValue(KindBool, nil); err == nil {
		t.Fatal("expected error decoding an empty bool")
	}
}
