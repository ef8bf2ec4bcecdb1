package codec

import "encoding/base64"

// EncodeLayerPixels packs a W×H RGBA buffer into the persistence wire format:
// y-major, then x-major 32-bit big-endian words of (r<<24|g<<16|b<<8|a),
// PackBits-compressed, then base64-encoded with the standard alphabet.
func EncodeLayerPixels(pixels []Pixel, width, height int) string {
	buf := make([]byte, 0, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := pixels[y*width+x]
			buf = append(buf, p.R, p.G, p.B, p.A)
		}
	}
	compressed := PackBitsEncode(buf)
	return base64.StdEncoding.EncodeToString(compressed)
}

// DecodeLayerPixels reverses EncodeLayerPixels. It iterates the stream using
// the stored dimensions (srcWidth, srcHeight) so that a mismatch against the
// destination buffer's dimensions is handled by clipping rather than
// corrupting the decode.
func DecodeLayerPixels(b64 string, srcWidth, srcHeight, dstWidth, dstHeight int) ([]Pixel, error) {
	compressed, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	raw := PackBitsDecode(compressed)
	maxWords := len(raw) / 4

	dst := make([]Pixel, dstWidth*dstHeight)
	word := 0
	for y := 0; y < srcHeight; y++ {
		for x := 0; x < srcWidth; x++ {
			if word >= maxWords {
				break
			}
			off := word * 4
			word++
			if x >= dstWidth || y >= dstHeight {
				continue
			}
			dst[y*dstWidth+x] = Pixel{R: raw[off], G: raw[off+1], B: raw[off+2], A: raw[off+3]}
		}
	}
	return dst, nil
}
