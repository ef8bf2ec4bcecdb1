package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// FrameDataSize is the width of the opaque data field carried by every
// reliable frame.
const FrameDataSize = 256

// FrameSize is the total wire size of a reliable frame (spec §6.1).
const FrameSize = 1 + 1 + 2 + 1 + 1 + 1 + FrameDataSize

// Frame is the fixed-size reliable-channel record. Multi-byte integers are
// little-endian on the wire.
type Frame struct {
	Type       MsgType
	CanvasID   uint8
	DataLen    uint16
	LayerCount uint8
	LayerID    uint8
	UserID     uint8
	Data       [FrameDataSize]byte
}

// Marshal encodes the frame into its 263-byte wire representation.
func (f *Frame) Marshal() []byte {
	buf := make([]byte, FrameSize)
	buf[0] = byte(f.Type)
	buf[1] = f.CanvasID
	binary.LittleEndian.PutUint16(buf[2:4], f.DataLen)
	buf[4] = f.LayerCount
	buf[5] = f.LayerID
	buf[6] = f.UserID
	copy(buf[7:], f.Data[:])
	return buf
}

// ReadFrame reads exactly one fixed-size frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	buf := make([]byte, FrameSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return UnmarshalFrame(buf)
}

// UnmarshalFrame decodes a 263-byte buffer into a Frame.
func UnmarshalFrame(buf []byte) (*Frame, error) {
	if len(buf) != FrameSize {
		return nil, fmt.Errorf("protocol: frame must be %d bytes, got %d", FrameSize, len(buf))
	}
	f := &Frame{
		Type:       MsgType(buf[0]),
		CanvasID:   buf[1],
		DataLen:    binary.LittleEndian.Uint16(buf[2:4]),
		LayerCount: buf[4],
		LayerID:    buf[5],
		UserID:     buf[6],
	}
	copy(f.Data[:], buf[7:])
	return f, nil
}

// DataSlice returns the significant prefix of the frame's data field.
func (f *Frame) DataSlice() []byte {
	n := int(f.DataLen)
	if n > FrameDataSize {
		n = FrameDataSize
	}
	return f.Data[:n]
}

// SetData copies payload into the frame's data field and sets DataLen,
// truncating if payload exceeds FrameDataSize.
func (f *Frame) SetData(payload []byte) {
	n := len(payload)
	if n > FrameDataSize {
		n = FrameDataSize
	}
	copy(f.Data[:], payload[:n])
	f.DataLen = uint16(n)
}

// WriteUint32LE appends a 32-bit little-endian integer to the writer, used
// for the WELCOME reply's layer_count prefix (spec §6.1).
func WriteUint32LE(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// ReadUint32LE reads a 32-bit little-endian integer.
func ReadUint32LE(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}
