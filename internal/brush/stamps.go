package brush

import (
	"math"

	"github.com/manpreetbhatti/paintcoop/internal/codec"
)

// roundBrush (id 0): filled disc of radius size/2, solid color.
type roundBrush struct{}

func (roundBrush) ID() int { return 0 }

func (roundBrush) Stamp(p Params) []Write {
	r := p.Size / 2
	if r < 1 {
		if inBounds(p.CenterX, p.CenterY, p.Width, p.Height) {
			return []Write{{X: p.CenterX, Y: p.CenterY, Pixel: p.Color, Mode: ModeSourceOver}}
		}
		return nil
	}
	var writes []Write
	for i := -r; i <= r; i++ {
		for j := -r; j <= r; j++ {
			if i*i+j*j > r*r {
				continue
			}
			x, y := p.CenterX+i, p.CenterY+j
			if inBounds(x, y, p.Width, p.Height) {
				writes = append(writes, Write{X: x, Y: y, Pixel: p.Color, Mode: ModeSourceOver})
			}
		}
	}
	return writes
}

// squareBrush (id 1): filled square of side size, solid color.
type squareBrush struct{}

func (squareBrush) ID() int { return 1 }

func (squareBrush) Stamp(p Params) []Write {
	r := p.Size / 2
	var writes []Write
	for i := -r; i <= r; i++ {
		for j := -r; j <= r; j++ {
			x, y := p.CenterX+i, p.CenterY+j
			if inBounds(x, y, p.Width, p.Height) {
				writes = append(writes, Write{X: x, Y: y, Pixel: p.Color, Mode: ModeSourceOver})
			}
		}
	}
	return writes
}

// hardEraserBrush (id 2): writes transparent black in a square of side size.
type hardEraserBrush struct{}

func (hardEraserBrush) ID() int { return 2 }

func (hardEraserBrush) Stamp(p Params) []Write {
	r := p.Size / 2
	var writes []Write
	for i := -r; i <= r; i++ {
		for j := -r; j <= r; j++ {
			x, y := p.CenterX+i, p.CenterY+j
			if inBounds(x, y, p.Width, p.Height) {
				writes = append(writes, Write{X: x, Y: y, Mode: ModeReplace})
			}
		}
	}
	return writes
}

// softEraserBrush (id 3): radial falloff (cubic), output alpha is the erase
// strength, applied via eraser-subtract rather than source-over.
type softEraserBrush struct{}

func (softEraserBrush) ID() int { return 3 }

func (softEraserBrush) Stamp(p Params) []Write {
	r := float64(p.Size) / 2
	if r < 1 {
		r = 1
	}
	pressureFactor := float64(p.Pressure) / 255
	opacityFactor := float64(p.Color.A) / 255

	var writes []Write
	ri := int(math.Ceil(r))
	for i := -ri; i <= ri; i++ {
		for j := -ri; j <= ri; j++ {
			dist := math.Sqrt(float64(i*i + j*j))
			if dist > r {
				continue
			}
			t := 1 - dist/r
			falloff := t * t * t // cubic
			strength := clampByte(falloff * pressureFactor * opacityFactor * 255)
			if strength == 0 {
				continue
			}
			x, y := p.CenterX+i, p.CenterY+j
			if inBounds(x, y, p.Width, p.Height) {
				writes = append(writes, Write{X: x, Y: y, Pixel: codec.Pixel{A: strength}, Mode: ModeEraseSubtract})
			}
		}
	}
	return writes
}

// pressureBrush (id 4): disc whose effective diameter scales with pressure,
// with a feathered edge and a square-root alpha curve.
type pressureBrush struct{}

func (pressureBrush) ID() int { return 4 }

func (pressureBrush) Stamp(p Params) []Write {
	pr := float64(p.Pressure) / 255
	diameter := float64(p.Size) * (0.3 + 0.7*pr)
	r := diameter / 2
	if r < 0.5 {
		r = 0.5
	}
	feather := 1.5
	alphaCurve := 0.2 + 0.8*math.Sqrt(pr)

	var writes []Write
	ri := int(math.Ceil(r + feather))
	for i := -ri; i <= ri; i++ {
		for j := -ri; j <= ri; j++ {
			dist := math.Sqrt(float64(i*i + j*j))
			if dist > r+feather {
				continue
			}
			var edge float64
			switch {
			case dist <= r-feather:
				edge = 1
			case dist >= r+feather:
				edge = 0
			default:
				edge = (r + feather - dist) / (2 * feather)
			}
			if edge <= 0 {
				continue
			}
			a := clampByte(edge * alphaCurve * float64(p.Color.A))
			if a == 0 {
				continue
			}
			x, y := p.CenterX+i, p.CenterY+j
			if inBounds(x, y, p.Width, p.Height) {
				c := p.Color
				c.A = a
				writes = append(writes, Write{X: x, Y: y, Pixel: c, Mode: ModeSourceOver})
			}
		}
	}
	return writes
}

// airbrushBrush (id 5): disc with squared radial falloff and a pressure
// dependent alpha multiplier.
type airbrushBrush struct{}

func (airbrushBrush) ID() int { return 5 }

func (airbrushBrush) Stamp(p Params) []Write {
	pr := float64(p.Pressure) / 255
	r := float64(p.Size) * (0.5 + 0.5*pr)
	if r < 0.5 {
		r = 0.5
	}
	alphaMultiplier := 0.15 + 0.85*pr

	var writes []Write
	ri := int(math.Ceil(r))
	for i := -ri; i <= ri; i++ {
		for j := -ri; j <= ri; j++ {
			dist := math.Sqrt(float64(i*i + j*j))
			if dist > r {
				continue
			}
			t := 1 - dist/r
			falloff := t * t // squared
			a := clampByte(falloff * alphaMultiplier * float64(p.Color.A))
			if a == 0 {
				continue
			}
			x, y := p.CenterX+i, p.CenterY+j
			if inBounds(x, y, p.Width, p.Height) {
				c := p.Color
				c.A = a
				writes = append(writes, Write{X: x, Y: y, Pixel: c, Mode: ModeSourceOver})
			}
		}
	}
	return writes
}

// texturedBrush (id 6): a line of perpendicular stamps modulated by a fixed
// bristle pattern and a square-root pressure curve, with quartic falloff at
// the stroke tips.
type texturedBrush struct{}

func (texturedBrush) ID() int { return 6 }

// bristlePattern is a fixed 32-sample modulation curve, loosely mimicking an
// uneven natural-bristle brush. Values are in [0,1].
var bristlePattern = [32]float64{
	0.9, 0.6, 1.0, 0.4, 0.8, 0.95, 0.5, 0.7,
	1.0, 0.3, 0.85, 0.6, 0.95, 0.45, 0.75, 1.0,
	0.55, 0.9, 0.35, 0.8, 1.0, 0.65, 0.5, 0.95,
	0.4, 0.85, 0.7, 1.0, 0.3, 0.6, 0.9, 0.5,
}

func (texturedBrush) Stamp(p Params) []Write {
	pr := float64(p.Pressure) / 255
	pressureCurve := math.Sqrt(pr)
	radius := float64(p.Size) / 2
	if radius < 0.5 {
		radius = 0.5
	}

	angle := float64(p.AngleDegrees) * math.Pi / 180
	dirX, dirY := math.Cos(angle), math.Sin(angle)
	perpX, perpY := -dirY, dirX

	var writes []Write
	length := float64(p.Size)
	for s := 0; s < len(bristlePattern); s++ {
		bristle := bristlePattern[s]
		// Spread bristles evenly across [-radius, radius] along the
		// perpendicular, and along [-length/2, length/2] along the
		// direction vector so the stamp covers a short segment of stroke.
		frac := float64(s)/float64(len(bristlePattern)-1)*2 - 1 // [-1,1]
		offPerp := frac * radius
		offDir := frac * (length / 2)

		// Quartic falloff toward the tips of the stroke segment.
		tipFalloff := 1 - frac*frac*frac*frac

		x := float64(p.CenterX) + perpX*offPerp + dirX*offDir
		y := float64(p.CenterY) + perpY*offPerp + dirY*offDir

		a := clampByte(bristle * pressureCurve * tipFalloff * float64(p.Color.A))
		if a == 0 {
			continue
		}
		xi, yi := int(math.Round(x)), int(math.Round(y))
		if inBounds(xi, yi, p.Width, p.Height) {
			c := p.Color
			c.A = a
			writes = append(writes, Write{X: xi, Y: yi, Pixel: c, Mode: ModeSourceOver})
		}
	}
	return writes
}
