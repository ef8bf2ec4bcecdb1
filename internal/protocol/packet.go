package protocol

import "encoding/binary"

// PacketSize is the fixed size of an unreliable datagram (spec §6.2). The
// last byte is unused padding to reach the spec's stated 18-byte record;
// every other field is normative.
const PacketSize = 18

// Packet is the fixed 18-byte unreliable datagram layout carrying DRAW,
// LINE, and CURSOR messages.
type Packet struct {
	Type       MsgType
	BrushID    uint8 // for CURSOR, carries the sender's room_uid instead
	LayerID    uint8
	X          int16
	Y          int16
	EX         int16 // DRAW: stroke angle in degrees. LINE: endpoint X.
	EY         int16
	R, G, B, A uint8
	Size       uint8
	Pressure   uint8
}

// Marshal encodes the packet into its 18-byte wire representation.
func (p *Packet) Marshal() []byte {
	buf := make([]byte, PacketSize)
	buf[0] = byte(p.Type)
	buf[1] = p.BrushID
	buf[2] = p.LayerID
	binary.LittleEndian.PutUint16(buf[3:5], uint16(p.X))
	binary.LittleEndian.PutUint16(buf[5:7], uint16(p.Y))
	binary.LittleEndian.PutUint16(buf[7:9], uint16(p.EX))
	binary.LittleEndian.PutUint16(buf[9:11], uint16(p.EY))
	buf[11] = p.R
	buf[12] = p.G
	buf[13] = p.B
	buf[14] = p.A
	buf[15] = p.Size
	buf[16] = p.Pressure
	return buf
}

// UnmarshalPacket decodes a datagram. A datagram shorter than PacketSize is
// malformed and is rejected (spec §7: "datagram smaller than the fixed
// record size" -> discard).
func UnmarshalPacket(buf []byte) (*Packet, bool) {
	if len(buf) < PacketSize {
		return nil, false
	}
	p := &Packet{
		Type:     MsgType(buf[0]),
		BrushID:  buf[1],
		LayerID:  buf[2],
		X:        int16(binary.LittleEndian.Uint16(buf[3:5])),
		Y:        int16(binary.LittleEndian.Uint16(buf[5:7])),
		EX:       int16(binary.LittleEndian.Uint16(buf[7:9])),
		EY:       int16(binary.LittleEndian.Uint16(buf[9:11])),
		R:        buf[11],
		G:        buf[12],
		B:        buf[13],
		A:        buf[14],
		Size:     buf[15],
		Pressure: buf[16],
	}
	return p, true
}
