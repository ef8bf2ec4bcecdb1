package layer

import (
	"testing"

	"github.com/manpreetbhatti/paintcoop/internal/brush"
	"github.com/manpreetbhatti/paintcoop/internal/codec"
)

func TestNewPaperIsOpaqueWhite(t *testing.T) {
	l := NewPaper(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if l.At(x, y) != codec.OpaqueWhite {
				t.Fatalf("paper pixel (%d,%d) not opaque white: %+v", x, y, l.At(x, y))
			}
		}
	}
}

func TestNewDrawableIsTransparent(t *testing.T) {
	l := NewDrawable(4, 4)
	if l.At(0, 0) != codec.Transparent {
		t.Fatalf("expected transparent drawable layer")
	}
}

func TestWriteOutOfBoundsIsDropped(t *testing.T) {
	l := NewDrawable(4, 4)
	l.Write(brush.Write{X: -1, Y: 0, Pixel: codec.Pixel{A: 255}, Mode: brush.ModeReplace})
	l.Write(brush.Write{X: 100, Y: 100, Pixel: codec.Pixel{A: 255}, Mode: brush.ModeReplace})
	// No panic, and the layer remains otherwise untouched.
	if l.At(0, 0) != codec.Transparent {
		t.Fatalf("expected untouched layer")
	}
}

func TestWriteSourceOverMarksDirty(t *testing.T) {
	l := NewDrawable(2, 2)
	l.Serialize() // clears dirty
	if l.Dirty() {
		t.Fatal("expected clean layer after serialize")
	}
	l.Write(brush.Write{X: 0, Y: 0, Pixel: codec.Pixel{R: 255, A: 255}, Mode: brush.ModeSourceOver})
	if !l.Dirty() {
		t.Fatal("expected write to mark layer dirty")
	}
}

func TestSerializeCacheReuse(t *testing.T) {
	l := NewDrawable(3, 3)
	first := l.Serialize()
	second := l.Serialize()
	if first != second {
		t.Fatal("expected cached serialize to be stable when clean")
	}
}

func TestTranslateDiscardsOutOfBoundsAndFillsGaps(t *testing.T) {
	l := NewDrawable(3, 3)
	l.Write(brush.Write{X: 0, Y: 0, Pixel: codec.Pixel{R: 9, A: 255}, Mode: brush.ModeReplace})
	l.Translate(1, 0)

	if l.At(1, 0) != (codec.Pixel{R: 9, A: 255}) {
		t.Fatalf("expected source pixel moved to (1,0), got %+v", l.At(1, 0))
	}
	if l.At(0, 0) != codec.Transparent {
		t.Fatalf("expected vacated column to become transparent, got %+v", l.At(0, 0))
	}
}

func TestReplaceAllRaw(t *testing.T) {
	l := NewDrawable(2, 1)
	raw := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	l.ReplaceAllRaw(raw)
	if l.At(0, 0) != (codec.Pixel{R: 1, G: 2, B: 3, A: 4}) {
		t.Fatalf("unexpected pixel 0: %+v", l.At(0, 0))
	}
	if l.At(1, 0) != (codec.Pixel{R: 5, G: 6, B: 7, A: 8}) {
		t.Fatalf("unexpected pixel 1: %+v", l.At(1, 0))
	}
}

func TestLoadFromRoundTripsSerialize(t *testing.T) {
	src := NewDrawable(2, 2)
	src.Write(brush.Write{X: 1, Y: 1, Pixel: codec.Pixel{G: 255, A: 255}, Mode: brush.ModeReplace})
	blob := src.Serialize()

	dst := NewDrawable(2, 2)
	if err := dst.LoadFrom(blob, 2, 2); err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if dst.At(1, 1) != (codec.Pixel{G: 255, A: 255}) {
		t.Fatalf("unexpected pixel after load: %+v", dst.At(1, 1))
	}
}
