// Package protocol implements the wire formats of spec §6: the fixed-size
// reliable frame (§6.1), the message type enum (§6.2), and the fixed-size
// unreliable datagram.
package protocol

// MsgType is the reliable and unreliable channel's shared message type
// enum (spec §6.2). Identifier 16 is intentionally unused.
type MsgType uint8

const (
	MsgLogin        MsgType = 1
	MsgLogout       MsgType = 2
	MsgWelcome      MsgType = 3
	MsgCanvasData   MsgType = 4
	MsgSave         MsgType = 5
	MsgDraw         MsgType = 6
	MsgCursor       MsgType = 7
	MsgLine         MsgType = 8
	MsgError        MsgType = 9
	MsgLayerAdd     MsgType = 10
	MsgLayerDel     MsgType = 11
	MsgLayerSelect  MsgType = 12
	MsgLayerSync    MsgType = 13
	MsgLayerReorder MsgType = 14
	MsgSignature    MsgType = 15
	MsgLayerMove    MsgType = 17
)
