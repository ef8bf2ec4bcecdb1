// Package codec implements the straight-alpha compositor and the byte-level
// encodings (PackBits, big-endian pixel packing) that the persistence format
// and the wire protocol both depend on.
package codec

// Pixel is a straight (non-premultiplied) alpha RGBA color. Wire and storage
// byte order is always R, G, B, A.
type Pixel struct {
	R, G, B, A uint8
}

// Transparent is the zero value: (0,0,0,0).
var Transparent = Pixel{}

// OpaqueWhite is the paper layer's fill color.
var OpaqueWhite = Pixel{R: 255, G: 255, B: 255, A: 255}

// SourceOver composites src over dst using straight-alpha "source-over"
// blending (spec §4.5). Both operands and the result use straight alpha.
func SourceOver(src, dst Pixel) Pixel {
	sa := float64(src.A) / 255
	da := float64(dst.A) / 255
	oa := sa + da*(1-sa)
	if oa == 0 {
		return Transparent
	}
	blend := func(sc, dc uint8) uint8 {
		o := (float64(sc)*sa + float64(dc)*da*(1-sa)) / oa
		return clampByte(o)
	}
	return Pixel{
		R: blend(src.R, dst.R),
		G: blend(src.G, dst.G),
		B: blend(src.B, dst.B),
		A: clampByte(oa * 255),
	}
}

// SourceOverAttenuated scales the source alpha by an opacity multiplier
// m/255 before blending, for presentation-time compositing. It never
// mutates the canonical stored layer bytes.
func SourceOverAttenuated(src, dst Pixel, m uint8) Pixel {
	scaled := src
	scaled.A = clampByte(float64(src.A) * float64(m) / 255)
	return SourceOver(scaled, dst)
}

// EraseSubtract implements the soft eraser's write mode: it subtracts the
// erase strength (carried in src.A) from dst's alpha, clamping to zero, and
// zeroes the RGB once alpha reaches zero.
func EraseSubtract(eraseStrength uint8, dst Pixel) Pixel {
	newA := int(dst.A) - int(eraseStrength)
	if newA <= 0 {
		return Transparent
	}
	dst.A = uint8(newA)
	return dst
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
