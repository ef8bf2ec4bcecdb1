package brush

import (
	"testing"

	"github.com/manpreetbhatti/paintcoop/internal/codec"
)

// S1 in spec §8: a round stamp at (100,100) radius 2 (size=5) writes solid
// black to every pixel within the disc and touches nothing else.
func TestRoundBrushDiscMatchesSpecScenario(t *testing.T) {
	c := NewCatalog()
	b := c.Get(0)

	writes := b.Stamp(Params{
		CenterX: 100, CenterY: 100,
		Color: codec.Pixel{A: 255},
		Size:  5,
		Width: 200, Height: 200,
	})

	seen := make(map[[2]int]bool)
	for _, w := range writes {
		dx, dy := w.X-100, w.Y-100
		if dx*dx+dy*dy > 4 {
			t.Fatalf("write outside disc radius: %+v", w)
		}
		if w.Pixel != (codec.Pixel{A: 255}) {
			t.Fatalf("expected solid black write, got %+v", w.Pixel)
		}
		seen[[2]int{w.X, w.Y}] = true
	}
	for dx := -2; dx <= 2; dx++ {
		for dy := -2; dy <= 2; dy++ {
			if dx*dx+dy*dy <= 4 && !seen[[2]int{100 + dx, 100 + dy}] {
				t.Fatalf("missing expected write at offset (%d,%d)", dx, dy)
			}
		}
	}
}

// S2 in spec §8: hard eraser at (50,50) size 10 clears every pixel with
// |dx|<=5 and |dy|<=5.
func TestHardEraserSquareMatchesSpecScenario(t *testing.T) {
	c := NewCatalog()
	b := c.Get(2)

	writes := b.Stamp(Params{
		CenterX: 50, CenterY: 50,
		Size:  10,
		Width: 200, Height: 200,
	})

	seen := make(map[[2]int]bool)
	for _, w := range writes {
		dx, dy := w.X-50, w.Y-50
		if dx < -5 || dx > 5 || dy < -5 || dy > 5 {
			t.Fatalf("write outside expected square: %+v", w)
		}
		if w.Mode != ModeReplace {
			t.Fatalf("expected replace-mode write, got mode %v", w.Mode)
		}
		seen[[2]int{w.X, w.Y}] = true
	}
	for dx := -5; dx <= 5; dx++ {
		for dy := -5; dy <= 5; dy++ {
			if !seen[[2]int{50 + dx, 50 + dy}] {
				t.Fatalf("missing expected write at offset (%d,%d)", dx, dy)
			}
		}
	}
}

func TestBrushesClampToLayerBounds(t *testing.T) {
	c := NewCatalog()
	for id := 0; id <= 6; id++ {
		b := c.Get(id)
		writes := b.Stamp(Params{
			CenterX: 0, CenterY: 0,
			Color:        codec.Pixel{R: 1, G: 2, B: 3, A: 255},
			Size:         20,
			Pressure:     200,
			AngleDegrees: 45,
			Width:        5, Height: 5,
		})
		for _, w := range writes {
			if w.X < 0 || w.Y < 0 || w.X >= 5 || w.Y >= 5 {
				t.Fatalf("brush %d produced out-of-bounds write %+v", id, w)
			}
		}
	}
}

func TestSoftEraserUsesEraseSubtractMode(t *testing.T) {
	c := NewCatalog()
	b := c.Get(3)
	writes := b.Stamp(Params{
		CenterX: 10, CenterY: 10,
		Color:    codec.Pixel{A: 255},
		Size:     6,
		Pressure: 255,
		Width:    50, Height: 50,
	})
	if len(writes) == 0 {
		t.Fatal("expected soft eraser to produce writes")
	}
	for _, w := range writes {
		if w.Mode != ModeEraseSubtract {
			t.Fatalf("expected erase-subtract mode, got %v", w.Mode)
		}
	}
}

func TestUnknownBrushIDFallsBackToRound(t *testing.T) {
	c := NewCatalog()
	if c.Get(99).ID() != 0 {
		t.Fatalf("expected fallback to round brush")
	}
}
