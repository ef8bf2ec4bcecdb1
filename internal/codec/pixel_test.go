package codec

import "testing"

func TestSourceOverOpaqueSourceReplaces(t *testing.T) {
	dst := Pixel{R: 10, G: 20, B: 30, A: 255}
	src := Pixel{R: 200, G: 0, B: 0, A: 255}
	got := SourceOver(src, dst)
	if got != src {
		t.Fatalf("expected opaque source to fully replace dest, got %+v", got)
	}
}

func TestSourceOverTransparentSourceLeavesDest(t *testing.T) {
	dst := Pixel{R: 10, G: 20, B: 30, A: 255}
	src := Transparent
	got := SourceOver(src, dst)
	if got != dst {
		t.Fatalf("expected transparent source to leave dest unchanged, got %+v", got)
	}
}

func TestSourceOverBothTransparentIsTransparent(t *testing.T) {
	got := SourceOver(Transparent, Transparent)
	if got != Transparent {
		t.Fatalf("expected transparent result, got %+v", got)
	}
}

func TestEraseSubtractClampsToTransparent(t *testing.T) {
	dst := Pixel{R: 1, G: 2, B: 3, A: 10}
	got := EraseSubtract(200, dst)
	if got != Transparent {
		t.Fatalf("expected fully erased pixel, got %+v", got)
	}
}

func TestEraseSubtractPartial(t *testing.T) {
	dst := Pixel{R: 1, G: 2, B: 3, A: 200}
	got := EraseSubtract(50, dst)
	want := Pixel{R: 1, G: 2, B: 3, A: 150}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestEncodeDecodeLayerPixelsRoundTrip(t *testing.T) {
	w, h := 4, 3
	pixels := make([]Pixel, w*h)
	for i := range pixels {
		pixels[i] = Pixel{R: uint8(i), G: uint8(i * 2), B: uint8(i * 3), A: 255}
	}

	encoded := EncodeLayerPixels(pixels, w, h)
	decoded, err := DecodeLayerPixels(encoded, w, h, w, h)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	for i := range pixels {
		if decoded[i] != pixels[i] {
			t.Fatalf("pixel %d mismatch: got %+v want %+v", i, decoded[i], pixels[i])
		}
	}
}

func TestDecodeLayerPixelsClipsToSmallerDestination(t *testing.T) {
	w, h := 4, 4
	pixels := make([]Pixel, w*h)
	for i := range pixels {
		pixels[i] = Pixel{R: uint8(i), A: 255}
	}
	encoded := EncodeLayerPixels(pixels, w, h)

	decoded, err := DecodeLayerPixels(encoded, w, h, 2, 2)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(decoded) != 4 {
		t.Fatalf("expected clipped 2x2 buffer, got len %d", len(decoded))
	}
	if decoded[0] != pixels[0] {
		t.Fatalf("top-left pixel mismatch: got %+v want %+v", decoded[0], pixels[0])
	}
}
