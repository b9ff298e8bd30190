package frame

import "testing"

const (
	selfID    = 0x00
	peerID    = 0x01
	moduleAll = 0x03
)

func legal(b byte) bool {
	return b == selfID || b == peerID || b == moduleAll
}

func Test_EncodeDecode_RoundTrip(t *testing.T) {
	cases := map[string]struct {
		payload []byte
		dest    byte
		source  byte
		key     byte
	}{
		"empty":     {nil, selfID, peerID, 0x00},
		"one-byte":  {[]byte{0x2a}, selfID, peerID, 0x7f},
		"max-bytes": {[]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, selfID, peerID, 0x01},
		"broadcast": {[]byte{0x11, 0x22}, moduleAll, peerID, 0x01},
	}

	for name, tc := range cases {
		enc, err := Encode(tc.payload, tc.dest, tc.source, tc.key, legal)
		if err != nil {
			t.Fatalf("%s: unexpected encode error: %v", name, err)
		}
		got := DecodeStream(enc, tc.dest, moduleAll, tc.key)
		if len(got) != 1 {
			t.Fatalf("%s: expected exactly one frame, got %d", name, len(got))
		}
		f := got[0]
		if !f.Valid {
			t.Fatalf("%s: expected valid frame", name)
		}
		if f.Source != tc.source {
			t.Errorf("%s: source mismatch, got %d want %d", name, f.Source, tc.source)
		}
		if len(f.Payload) != len(tc.payload) {
			t.Fatalf("%s: payload length mismatch, got %d want %d", name, len(f.Payload), len(tc.payload))
		}
		for i := range f.Payload {
			if f.Payload[i] != tc.payload[i] {
				t.Errorf("%s: payload[%d] mismatch, got %d want %d", name, i, f.Payload[i], tc.payload[i])
			}
		}
	}
}

func Test_Encode_OversizedPayload(t *testing.T) {
	_, err := Encode(make([]byte, 11), selfID, peerID, 0, legal)
	if err == nil {
		t.Fatal("expected error for 11-byte payload")
	}
}

func Test_Encode_IllegalDestination(t *testing.T) {
	_, err := Encode([]byte{1}, 0x55, peerID, 0, legal)
	if err == nil {
		t.Fatal("expected error for illegal destination")
	}
}

// Test_CRCSensitivity flips every bit of the source, pad, key and payload
// bytes and checks the CRC always catches it. The destination byte is
// covered by Test_DestinationFilter and the version/size byte is excluded
// here because corrupting it changes how many bytes DecodeStream thinks the
// frame occupies, which is a framing concern rather than a CRC one.
func Test_CRCSensitivity(t *testing.T) {
	enc, _ := Encode([]byte{1, 2, 3}, selfID, peerID, 0x42, legal)
	for _, byteIdx := range []int{1, 2, 4, 5, 6, 7} {
		for bit := 0; bit < 8; bit++ {
			flipped := append([]byte(nil), enc...)
			flipped[byteIdx] ^= 1 << bit
			got := DecodeStream(flipped, selfID, moduleAll, 0x42)
			if len(got) != 1 {
				t.Fatalf("flipping byte %d bit %d: expected one frame, got %d", byteIdx, bit, len(got))
			}
			if got[0].Valid {
				t.Errorf("flipping byte %d bit %d: expected invalid frame", byteIdx, bit)
			}
		}
	}
}

func Test_KeyFilter(t *testing.T) {
	enc, _ := Encode([]byte{9}, selfID, peerID, 0x01, legal)
	got := DecodeStream(enc, selfID, moduleAll, 0x02)
	if len(got) != 1 {
		t.Fatalf("expected frame to be counted despite key mismatch, got %d", len(got))
	}
	if got[0].Valid {
		t.Error("expected invalid frame on key mismatch")
	}
}

func Test_DestinationFilter(t *testing.T) {
	enc, _ := Encode([]byte{9}, peerID, selfID, 0x00, legal)
	got := DecodeStream(enc, selfID, moduleAll, 0x00)
	if len(got) != 0 {
		t.Fatalf("expected frame addressed to peer to be skipped, got %d", len(got))
	}
}

func Test_Concatenation(t *testing.T) {
	p1, _ := Encode([]byte{1, 2}, selfID, peerID, 0x00, legal)
	p2, _ := Encode([]byte{3, 4, 5}, selfID, peerID, 0x00, legal)
	buf := append(append([]byte(nil), p1...), p2...)

	got := DecodeStream(buf, selfID, moduleAll, 0x00)
	if len(got) != 2 {
		t.Fatalf("expected two frames, got %d", len(got))
	}
	if got[0].Payload[0] != 1 || got[1].Payload[0] != 3 {
		t.Errorf("frames out of order: %+v", got)
	}
}

func Test_PartialTrailingBytes(t *testing.T) {
	enc, _ := Encode([]byte{7, 8}, selfID, peerID, 0x00, legal)
	for n := 1; n <= 5; n++ {
		trailer := make([]byte, n)
		for i := range trailer {
			trailer[i] = byte(0xA0 + i)
		}
		buf := append(append([]byte(nil), enc...), trailer...)
		got := DecodeStream(buf, selfID, moduleAll, 0x00)
		if len(got) != 1 {
			t.Fatalf("trailing %d bytes: expected one frame, got %d", n, len(got))
		}
		if !got[0].Valid {
			t.Errorf("trailing %d bytes: expected valid frame", n)
		}
	}
}
