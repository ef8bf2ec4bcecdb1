// Package layer implements the single-layer bitmap type described in spec
// §4.2: a fixed W×H RGBA buffer with a dirty flag and a cached serialized
// form.
package layer

import (
	"sync"

	"github.com/manpreetbhatti/paintcoop/internal/brush"
	"github.com/manpreetbhatti/paintcoop/internal/codec"
)

// Layer owns one W×H RGBA frame plus the bookkeeping needed to drive
// persistence cache reuse (spec §4.6).
type Layer struct {
	mu     sync.RWMutex
	width  int
	height int
	pixels []codec.Pixel

	dirty bool
	cache string // valid only while dirty == false
}

// NewPaper builds the mandatory index-0 layer: opaque white, never painted
// directly by clients.
func NewPaper(width, height int) *Layer {
	return newLayer(width, height, codec.OpaqueWhite)
}

// NewDrawable builds a fresh transparent layer for indices >= 1.
func NewDrawable(width, height int) *Layer {
	return newLayer(width, height, codec.Transparent)
}

func newLayer(width, height int, fill codec.Pixel) *Layer {
	l := &Layer{width: width, height: height}
	l.pixels = make([]codec.Pixel, width*height)
	for i := range l.pixels {
		l.pixels[i] = fill
	}
	l.dirty = true
	return l
}

func (l *Layer) Width() int  { return l.width }
func (l *Layer) Height() int { return l.height }

// At returns the pixel at (x,y). Out-of-range coordinates return
// codec.Transparent.
func (l *Layer) At(x, y int) codec.Pixel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.inBounds(x, y) {
		return codec.Transparent
	}
	return l.pixels[y*l.width+x]
}

func (l *Layer) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < l.width && y < l.height
}

// Write applies a single brush write to the layer using its write mode.
// Out-of-range coordinates are silently dropped.
func (l *Layer) Write(w brush.Write) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeLocked(w)
}

// WriteAll applies a batch of writes under a single lock acquisition, which
// is how Room.stamp and Room.stroke_line apply a brush's output.
func (l *Layer) WriteAll(writes []brush.Write) {
	if len(writes) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, w := range writes {
		l.writeLocked(w)
	}
}

func (l *Layer) writeLocked(w brush.Write) {
	if !l.inBounds(w.X, w.Y) {
		return
	}
	idx := w.Y*l.width + w.X
	switch w.Mode {
	case brush.ModeReplace:
		l.pixels[idx] = w.Pixel
	case brush.ModeEraseSubtract:
		l.pixels[idx] = codec.EraseSubtract(w.Pixel.A, l.pixels[idx])
	default: // ModeSourceOver
		l.pixels[idx] = codec.SourceOver(w.Pixel, l.pixels[idx])
	}
	l.dirty = true
	l.cache = ""
}

// ReplaceAll overwrites the entire buffer, e.g. for a LAYER_SYNC. pixels
// must contain exactly width*height entries.
func (l *Layer) ReplaceAll(pixels []codec.Pixel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	copy(l.pixels, pixels)
	l.dirty = true
	l.cache = ""
}

// ReplaceAllRaw overwrites the buffer from a raw R,G,B,A byte stream of
// exactly width*height*4 bytes, as received over the reliable channel.
func (l *Layer) ReplaceAllRaw(raw []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := 0; i < len(l.pixels) && i*4+3 < len(raw); i++ {
		l.pixels[i] = codec.Pixel{R: raw[i*4], G: raw[i*4+1], B: raw[i*4+2], A: raw[i*4+3]}
	}
	l.dirty = true
	l.cache = ""
}

// RawBytes returns the buffer as a raw R,G,B,A byte stream, for WELCOME
// bitmap streaming and LAYER_SYNC rebroadcast.
func (l *Layer) RawBytes() []byte {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]byte, 0, len(l.pixels)*4)
	for _, p := range l.pixels {
		out = append(out, p.R, p.G, p.B, p.A)
	}
	return out
}

// Translate rebuilds the layer as a fresh transparent frame, then copies
// each source pixel at (sx,sy) to (sx+dx, sy+dy); pixels whose destination
// falls outside the rectangle are discarded (spec §4.2).
func (l *Layer) Translate(dx, dy int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fresh := make([]codec.Pixel, l.width*l.height)
	for sy := 0; sy < l.height; sy++ {
		for sx := 0; sx < l.width; sx++ {
			nx, ny := sx+dx, sy+dy
			if !l.inBounds(nx, ny) {
				continue
			}
			fresh[ny*l.width+nx] = l.pixels[sy*l.width+sx]
		}
	}
	l.pixels = fresh
	l.dirty = true
	l.cache = ""
}

// Dirty reports whether the layer has been mutated since it was last
// serialized.
func (l *Layer) Dirty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dirty
}

// Serialize returns the cached encoded form if the layer is clean,
// otherwise encodes via codec.EncodeLayerPixels and caches the result.
func (l *Layer) Serialize() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.dirty && l.cache != "" {
		return l.cache
	}
	l.cache = codec.EncodeLayerPixels(l.pixels, l.width, l.height)
	l.dirty = false
	return l.cache
}

// LoadFrom decodes a persisted blob into this layer's buffer (used by
// persistence.Load), clipping to this layer's dimensions if the stored
// dimensions differ.
func (l *Layer) LoadFrom(b64 string, storedWidth, storedHeight int) error {
	pixels, err := codec.DecodeLayerPixels(b64, storedWidth, storedHeight, l.width, l.height)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pixels = pixels
	l.dirty = true
	l.cache = ""
	return nil
}
