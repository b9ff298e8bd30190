package mailbox

import (
	"fmt"
	"math"
)

// widthOf returns the number of wire bytes a Kind occupies after its index
// byte, per spec §4.4.5.
func widthOf(k Kind) int {
	switch k {
	case KindInt32, KindFloat32:
		return 4
	case KindBool:
		return 1
	default:
		return 0
	}
}

// encodeValue appends the fixed-width little-endian encoding of v after
// the entry's index byte. The encoding is chosen by v's own Kind; Table.Set
// refuses a value whose Kind differs from the entry's declared type, so for
// values held in the table that Kind is the declared type.
func encodeValue(idx byte, v Value) []byte {
	out := []byte{idx}
	switch v.Kind {
	case KindInt32:
		n, _ := v.Int32()
		u := uint32(n)
		out = append(out, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
	case KindFloat32:
		f, _ := v.Float32()
		u := math.Float32bits(f)
		out = append(out, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
	case KindBool:
		b, _ := v.Bool()
		if b {
			out = append(out, 0x01)
		} else {
			out = append(out, 0x00)
		}
	}
	return out
}

// decodeValue parses the bytes following an index byte into a Value of the
// given kind, returning the number of bytes consumed.
func decodeValue(kind Kind, data []byte) (Value, int, error) {
	width := widthOf(kind)
	if width == 0 {
		return Value{}, 0, fmt.Errorf("mailbox: unsupported declared kind %d", kind)
	}
	if len(data) < width {
		return Value{}, 0, fmt.Errorf("mailbox: need %d bytes to decode kind %d, have %d", width, kind, len(data))
	}
	switch kind {
	case KindInt32:
		u := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
		return Int32Value(int32(u)), width, nil
	case KindFloat32:
		u := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
		return Float32Value(math.Float32frombits(u)), width, nil
	case KindBool:
		return BoolValue(data[0] != 0), width, nil
	}
	return Value{}, 0, fmt.Errorf("mailbox: unsupported declared kind %d", kind)
}
