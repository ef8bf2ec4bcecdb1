package codec

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestPackBitsRoundTripLiteralExample(t *testing.T) {
	// From spec S4. The {7,7} pair between the literal 1,2,3 and the 8,8,8,8
	// run is only 2 bytes, not the 3+ needed to break a literal block early,
	// so it rides along in the literal: header 0x04 for a 5-byte literal
	// (1,2,3,7,7), then the run of four 8s as its own repeat packet.
	in := []byte{7, 7, 7, 7, 7, 1, 2, 3, 7, 7, 8, 8, 8, 8}
	want := []byte{0xFC, 0x07, 0x04, 0x01, 0x02, 0x03, 0x07, 0x07, 0xFD, 0x08}

	got := PackBitsEncode(in)
	if !bytes.Equal(got, want) {
		t.Fatalf("encode mismatch:\n got  %v\n want %v", got, want)
	}

	decoded := PackBitsDecode(got)
	if !bytes.Equal(decoded, in) {
		t.Fatalf("decode mismatch: got %v want %v", decoded, in)
	}
}

func TestPackBitsRoundTripRandom(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for n := 0; n < 50; n++ {
		size := r.Intn(2000)
		data := make([]byte, size)
		// Bias toward runs so the run-length path gets exercised.
		for i := range data {
			if i > 0 && r.Intn(3) == 0 {
				data[i] = data[i-1]
			} else {
				data[i] = byte(r.Intn(256))
			}
		}
		encoded := PackBitsEncode(data)
		decoded := PackBitsDecode(encoded)
		if !bytes.Equal(decoded, data) {
			t.Fatalf("round trip failed for size %d", size)
		}
	}
}

func TestPackBitsEmpty(t *testing.T) {
	if got := PackBitsDecode(PackBitsEncode(nil)); len(got) != 0 {
		t.Fatalf("expected empty round trip, got %v", got)
	}
}
