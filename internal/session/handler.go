// Package session implements the per-connection reliable channel worker
// (spec §4.4): one goroutine per accepted TCP connection, dispatching
// fixed-size frames and mutating the addressed Room.
package session

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/manpreetbhatti/paintcoop/internal/protocol"
	"github.com/manpreetbhatti/paintcoop/internal/registry"
	"github.com/manpreetbhatti/paintcoop/internal/room"
)

// AuditSink receives lifecycle events for the sqlite-backed audit log
// described in SPEC_FULL.md §2. It is optional; a nil sink disables
// auditing without changing session behavior.
type AuditSink interface {
	RecordEvent(sessionID, kind, detail string, canvasID int)
}

// ActivateFunc ensures a room's unreliable worker and socket are running,
// returning the room's UDP port on success (spec §4.3: first login for a
// canvas transitions it to Active).
type ActivateFunc func(r *room.Room) (udpPort int, err error)

// SaveFunc triggers an immediate persistence pass (spec §4.4: SAVE).
type SaveFunc func()

// Handler is one worker per accepted reliable connection.
type Handler struct {
	conn      net.Conn
	registry  *registry.Registry
	activate  ActivateFunc
	save      SaveFunc
	audit     AuditSink
	sessionID string

	sendMu sync.Mutex

	room    *room.Room
	roomUID uint8
	name    string
}

// New builds a session handler for a freshly accepted connection.
func New(conn net.Conn, reg *registry.Registry, activate ActivateFunc, save SaveFunc, audit AuditSink) *Handler {
	return &Handler{
		conn:      conn,
		registry:  reg,
		activate:  activate,
		save:      save,
		audit:     audit,
		sessionID: uuid.NewString(),
	}
}

// SendFrame implements room.Subscriber.
func (h *Handler) SendFrame(f *protocol.Frame) error {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	_, err := h.conn.Write(f.Marshal())
	return err
}

// SendRaw implements the room package's rawSender, for LAYER_SYNC bitmap
// payload rebroadcast.
func (h *Handler) SendRaw(b []byte) error {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	_, err := h.conn.Write(b)
	return err
}

// RemoteLabel implements room.Subscriber.
func (h *Handler) RemoteLabel() string {
	return h.conn.RemoteAddr().String()
}

// Serve reads and dispatches frames until the connection closes or a read
// fails. On return, the user has left its room and the connection has been
// closed.
func (h *Handler) Serve() {
	defer h.cleanup()

	for {
		f, err := protocol.ReadFrame(h.conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("[session %s] read error: %v", h.sessionID, err)
			}
			return
		}
		if !h.dispatch(f) {
			return
		}
	}
}

func (h *Handler) cleanup() {
	if h.room != nil {
		h.room.Leave(h)
		if h.audit != nil {
			h.audit.RecordEvent(h.sessionID, "leave", fmt.Sprintf("%s (uid=%d)", h.name, h.roomUID), h.room.ID)
		}
	}
	h.conn.Close()
}

func (h *Handler) dispatch(f *protocol.Frame) bool {
	switch f.Type {
	case protocol.MsgLogin:
		h.handleLogin(f)
	case protocol.MsgSignature:
		h.handleSignature(f)
	case protocol.MsgSave:
		if h.save != nil {
			h.save()
		}
	case protocol.MsgLayerAdd:
		if h.room != nil {
			h.room.AddLayer(int(f.LayerID))
		}
	case protocol.MsgLayerDel:
		if h.room != nil {
			h.room.DeleteLayer(int(f.LayerID))
		}
	case protocol.MsgLayerSync:
		return h.handleLayerSync(f)
	case protocol.MsgLayerReorder:
		if h.room != nil {
			data := f.DataSlice()
			if len(data) >= 2 {
				h.room.ReorderLayer(int(data[0]), int(data[1]))
			}
		}
	case protocol.MsgLayerMove:
		if h.room != nil {
			data := f.DataSlice()
			if len(data) >= 8 {
				dx := int32(binary.LittleEndian.Uint32(data[0:4]))
				dy := int32(binary.LittleEndian.Uint32(data[4:8]))
				h.room.TranslateLayer(h, int(f.LayerID), int(dx), int(dy))
			}
		}
	default:
		// Unknown message type: ignore, keep reading (spec §7).
	}
	return true
}

func (h *Handler) handleLogin(f *protocol.Frame) {
	canvasID := int(f.CanvasID)
	h.name = string(f.DataSlice())

	r := h.registry.GetOrCreate(canvasID)
	if h.activate != nil {
		if _, err := h.activate(r); err != nil {
			log.Printf("[session %s] failed to activate canvas %d: %v", h.sessionID, canvasID, err)
			errFrame := &protocol.Frame{Type: protocol.MsgError, CanvasID: f.CanvasID}
			errFrame.SetData([]byte(err.Error()))
			h.SendFrame(errFrame)
			return
		}
	}

	uid, layerCount, _ := r.Join(h, h.name, nil)
	h.room = r
	h.roomUID = uid

	if h.audit != nil {
		h.audit.RecordEvent(h.sessionID, "join", h.name, canvasID)
	}

	welcome := &protocol.Frame{
		Type:       protocol.MsgWelcome,
		CanvasID:   f.CanvasID,
		LayerCount: uint8(layerCount),
		UserID:     uid,
	}
	if err := h.SendFrame(welcome); err != nil {
		return
	}

	h.streamLayerBitmaps(r)
	h.forwardExistingSignatures(r)
}

// streamLayerBitmaps sends the WELCOME reply's trailing bitmap stream: a
// 32-bit layer count, then each drawable layer's raw bytes in index order
// (spec §6.1).
func (h *Handler) streamLayerBitmaps(r *room.Room) {
	layers := r.Layers()
	h.sendMu.Lock()
	defer h.sendMu.Unlock()

	if err := protocol.WriteUint32LE(h.conn, uint32(len(layers))); err != nil {
		return
	}
	for i := 1; i < len(layers); i++ {
		if _, err := h.conn.Write(layers[i].RawBytes()); err != nil {
			return
		}
	}
}

func (h *Handler) forwardExistingSignatures(r *room.Room) {
	for uid, sig := range r.Signatures() {
		f := &protocol.Frame{Type: protocol.MsgSignature, CanvasID: uint8(r.ID), UserID: uid}
		f.SetData(sig)
		h.SendFrame(f)
	}
}

func (h *Handler) handleSignature(f *protocol.Frame) {
	if h.room == nil || f.DataLen != protocol.FrameDataSize {
		return
	}
	sig := append([]byte(nil), f.Data[:]...)
	uid, ok := h.room.SetSignature(h, sig)
	if !ok {
		return
	}
	broadcast := &protocol.Frame{Type: protocol.MsgSignature, CanvasID: uint8(h.room.ID), UserID: uid, DataLen: protocol.FrameDataSize}
	broadcast.Data = f.Data
	h.room.BroadcastFrame(broadcast, nil)
}

func (h *Handler) handleLayerSync(f *protocol.Frame) bool {
	if h.room == nil {
		return true
	}
	size := h.room.Width() * h.room.Height() * 4
	raw := make([]byte, size)
	if _, err := io.ReadFull(h.conn, raw); err != nil {
		log.Printf("[session %s] layer sync short read: %v", h.sessionID, err)
		return false
	}
	h.room.ReplaceLayer(h, int(f.LayerID), raw)
	return true
}
