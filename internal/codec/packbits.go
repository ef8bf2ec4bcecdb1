package codec

// PackBitsEncode compresses data using the PackBits RLE variant from spec
// §6.3: header bytes in [0,127] precede (n+1) literal bytes, header bytes in
// [-127,-1] precede a single byte repeated (1-n) times, and -128 is a no-op.
// Runs of 3 or more identical bytes are always emitted as a repeat packet
// when within the allowed run length, and literal runs break before such a
// run starts.
func PackBitsEncode(data []byte) []byte {
	out := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		runStart := i
		for i+1 < len(data) && data[i] == data[i+1] && (i-runStart) < 127 {
			i++
		}
		if i > runStart {
			count := i - runStart + 1
			out = append(out, byte(257-count), data[runStart])
			i++
			continue
		}

		j := i
		for j < len(data) && (j-i) < 128 {
			if j+2 < len(data) && data[j] == data[j+1] && data[j] == data[j+2] {
				break
			}
			j++
		}
		count := j - i
		out = append(out, byte(count-1))
		out = append(out, data[i:j]...)
		i = j
	}
	return out
}

// PackBitsDecode is the inverse of PackBitsEncode.
func PackBitsDecode(in []byte) []byte {
	out := make([]byte, 0, len(in))
	i := 0
	for i < len(in) {
		n := int8(in[i])
		i++
		if n == -128 {
			continue
		}
		if n >= 0 {
			count := int(n) + 1
			for k := 0; k < count && i < len(in); k++ {
				out = append(out, in[i])
				i++
			}
		} else {
			count := 1 - int(n)
			if i < len(in) {
				v := in[i]
				i++
				for k := 0; k < count; k++ {
					out = append(out, v)
				}
			}
		}
	}
	return out
}
