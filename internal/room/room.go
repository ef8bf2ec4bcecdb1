// Package room implements the per-canvas concurrent state machine: the
// ordered layer stack, the connected-user table, the reliable subscriber
// set, and the unreliable peer set, all guarded by a single mutex (spec
// §4.3).
package room

import (
	"log"
	"net"
	"sync"

	"github.com/manpreetbhatti/paintcoop/internal/brush"
	"github.com/manpreetbhatti/paintcoop/internal/codec"
	"github.com/manpreetbhatti/paintcoop/internal/layer"
	"github.com/manpreetbhatti/paintcoop/internal/protocol"
)

// MaxLayers is the per-room layer capacity ceiling (spec §5).
const MaxLayers = 15

// Subscriber is a reliable-channel connection handle. Room broadcasts to it
// best-effort: a failing send is logged and otherwise ignored (spec §4.4).
type Subscriber interface {
	SendFrame(f *protocol.Frame) error
	RemoteLabel() string
}

// Room owns one canvas's runtime state.
type Room struct {
	ID int

	width, height int
	catalog       *brush.Catalog

	mu     sync.Mutex
	layers []*layer.Layer
	users  map[Subscriber]*User
	peers  map[string]*net.UDPAddr
	dirty  bool

	udpConn *net.UDPConn
	active  bool
}

// New creates a Room initialized with the paper layer plus one drawable
// layer (spec §4.3: first mention of a canvas id creates it in this state).
func New(id, width, height int, catalog *brush.Catalog) *Room {
	return &Room{
		ID:      id,
		width:   width,
		height:  height,
		catalog: catalog,
		layers:  []*layer.Layer{layer.NewPaper(width, height), layer.NewDrawable(width, height)},
		users:   make(map[Subscriber]*User),
		peers:   make(map[string]*net.UDPAddr),
	}
}

// Width and Height report the canvas dimensions.
func (r *Room) Width() int  { return r.width }
func (r *Room) Height() int { return r.height }

// SetUDPConn binds the room's unreliable socket, transitioning it toward
// Active. Called once by transport when the room's worker starts.
func (r *Room) SetUDPConn(conn *net.UDPConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.udpConn = conn
	r.active = true
}

// Active reports whether the room's unreliable worker is running.
func (r *Room) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Dirty reports whether the room has been mutated since the last
// successful persist (spec invariant 5). This is the room-level flag only,
// set explicitly by every mutating operation; per-layer dirty bits exist
// purely to decide per-layer cache reuse inside Save, not this gate (the
// paper layer in particular starts dirty and is never cleared, since
// nothing ever serializes it).
func (r *Room) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}

// ClearDirty is called by persistence after a successful save.
func (r *Room) ClearDirty() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = false
}

// LayerCount returns the current number of layers (paper included).
func (r *Room) LayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.layers)
}

// Layers returns a snapshot slice of the layer pointers. Callers must not
// assume indices stay valid once the room mutex is released.
func (r *Room) Layers() []*layer.Layer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*layer.Layer, len(r.layers))
	copy(out, r.layers)
	return out
}

// Join adds a new user under the smallest free room_uid in 1..=255 and
// registers the subscriber. Returns the assigned uid and the current layer
// count.
func (r *Room) Join(sub Subscriber, name string, signature []byte) (roomUID uint8, layerCount int, err error) {
	if len(name) > MaxDisplayNameBytes {
		name = name[:MaxDisplayNameBytes]
	}
	if len(signature) > MaxSignatureBytes {
		signature = signature[:MaxSignatureBytes]
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	used := make(map[uint8]bool, len(r.users))
	for _, u := range r.users {
		used[u.RoomUID] = true
	}
	var uid uint8
	for i := 1; i <= 255; i++ {
		if !used[uint8(i)] {
			uid = uint8(i)
			break
		}
	}

	r.users[sub] = &User{Name: name, Signature: signature, RoomUID: uid}
	log.Printf("[room %d] %s joined as uid=%d (%d users)", r.ID, name, uid, len(r.users))
	return uid, len(r.layers), nil
}

// Leave removes a subscriber's user record. The unreliable peer set is left
// untouched (spec §5: peers only ever grow).
func (r *Room) Leave(sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[sub]; ok {
		delete(r.users, sub)
		log.Printf("[room %d] %s left (%d users remain)", r.ID, u.Name, len(r.users))
	}
}

// UserCount returns the number of connected users.
func (r *Room) UserCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// Signatures returns every user's stored signature keyed by room_uid,
// skipping users with no signature yet, for forwarding to a new joiner.
func (r *Room) Signatures() map[uint8][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uint8][]byte)
	for _, u := range r.users {
		if len(u.Signature) > 0 {
			out[u.RoomUID] = u.Signature
		}
	}
	return out
}

// SetSignature stores sub's signature and returns its room_uid for the
// caller to use in the broadcast echo.
func (r *Room) SetSignature(sub Subscriber, signature []byte) (uid uint8, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, exists := r.users[sub]
	if !exists {
		return 0, false
	}
	if len(signature) > MaxSignatureBytes {
		signature = signature[:MaxSignatureBytes]
	}
	u.Signature = signature
	return u.RoomUID, true
}

// BroadcastFrame sends f to every subscriber except excluded (pass nil to
// send to everyone). Send failures are logged and otherwise ignored. Held
// under the room mutex like every other mutation+broadcast pair (spec §5).
func (r *Room) BroadcastFrame(f *protocol.Frame, excluded Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastFrameLocked(f, excluded)
}

// broadcastFrameLocked assumes r.mu is already held. Mutations call this
// instead of BroadcastFrame so the mutate-then-send pair is one critical
// section: a second mutation can't interleave its own broadcast between this
// one's state change and its announcement (spec §5, invariant #10).
func (r *Room) broadcastFrameLocked(f *protocol.Frame, excluded Subscriber) {
	for s := range r.users {
		if s == excluded {
			continue
		}
		if err := s.SendFrame(f); err != nil {
			log.Printf("[room %d] broadcast to %s failed: %v", r.ID, s.RemoteLabel(), err)
		}
	}
}

// AddLayer inserts a fresh transparent layer at the given position (0 or
// past-the-end means append), unless MaxLayers is already reached.
func (r *Room) AddLayer(at int) (ok bool, insertedAt, newCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.layers) >= MaxLayers {
		return false, 0, 0
	}
	if at <= 0 || at > len(r.layers) {
		at = len(r.layers)
	}
	if at < 1 {
		at = 1
	}
	fresh := layer.NewDrawable(r.width, r.height)
	r.layers = append(r.layers, nil)
	copy(r.layers[at+1:], r.layers[at:])
	r.layers[at] = fresh
	r.dirty = true
	newCount = len(r.layers)

	f := &protocol.Frame{Type: protocol.MsgLayerAdd, CanvasID: uint8(r.ID), LayerCount: uint8(newCount), LayerID: uint8(at)}
	r.broadcastFrameLocked(f, nil)
	return true, at, newCount
}

// DeleteLayer removes layer i (i must be >= 1 and the room must keep at
// least 2 layers afterward), per spec §4.3.
func (r *Room) DeleteLayer(i int) (ok bool, newCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 1 || i >= len(r.layers) || len(r.layers) <= 2 {
		return false, 0
	}
	r.layers = append(r.layers[:i], r.layers[i+1:]...)
	r.dirty = true
	newCount = len(r.layers)

	f := &protocol.Frame{Type: protocol.MsgLayerDel, CanvasID: uint8(r.ID), LayerCount: uint8(newCount), LayerID: uint8(i)}
	r.broadcastFrameLocked(f, nil)
	return true, newCount
}

// ReorderLayer moves the layer at from to position to by rotating the
// intervening layers. Both indices must be in [1, len).
func (r *Room) ReorderLayer(from, to int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.layers)
	if from < 1 || from >= n || to < 1 || to >= n {
		return false
	}
	moved := r.layers[from]
	if from < to {
		copy(r.layers[from:to], r.layers[from+1:to+1])
	} else if from > to {
		copy(r.layers[to+1:from+1], r.layers[to:from])
	}
	r.layers[to] = moved
	r.dirty = true

	f := &protocol.Frame{Type: protocol.MsgLayerReorder, CanvasID: uint8(r.ID)}
	f.SetData([]byte{byte(from), byte(to)})
	r.broadcastFrameLocked(f, nil)
	return true
}

// ReplaceLayer overwrites layer i's buffer and rebroadcasts the header plus
// the raw payload to every other subscriber. excluded should be the sender
// so it does not receive its own sync echo (spec §4.4).
func (r *Room) ReplaceLayer(excluded Subscriber, i int, raw []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 1 || i >= len(r.layers) || len(raw) != r.width*r.height*4 {
		return false
	}
	target := r.layers[i]
	target.ReplaceAllRaw(raw)
	r.dirty = true

	f := &protocol.Frame{Type: protocol.MsgLayerSync, CanvasID: uint8(r.ID), LayerID: uint8(i)}
	r.broadcastFrameLocked(f, excluded)
	r.broadcastRawLocked(raw, excluded)
	return true
}

// rawSender is implemented by session handlers to stream bulk bitmap bytes
// after a LAYER_SYNC header.
type rawSender interface {
	SendRaw([]byte) error
}

// broadcastRawLocked assumes r.mu is already held; see broadcastFrameLocked.
func (r *Room) broadcastRawLocked(raw []byte, excluded Subscriber) {
	for s := range r.users {
		if s == excluded {
			continue
		}
		if rs, ok := s.(rawSender); ok {
			if err := rs.SendRaw(raw); err != nil {
				log.Printf("[room %d] raw broadcast failed: %v", r.ID, err)
			}
		}
	}
}

// TranslateLayer applies layer.Translate and rebroadcasts to every other
// subscriber (the sender already applied it locally per spec §4.3/§4.4).
func (r *Room) TranslateLayer(excluded Subscriber, i, dx, dy int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 1 || i >= len(r.layers) {
		return false
	}
	target := r.layers[i]
	target.Translate(dx, dy)
	r.dirty = true

	f := &protocol.Frame{Type: protocol.MsgLayerMove, CanvasID: uint8(r.ID), LayerID: uint8(i)}
	data := make([]byte, 8)
	putInt32LE(data[0:4], int32(dx))
	putInt32LE(data[4:8], int32(dy))
	f.SetData(data)
	r.broadcastFrameLocked(f, excluded)
	return true
}

func putInt32LE(b []byte, v int32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// resolveLayerIndex clamps i to [1, len); if i is 0 or out of range it
// defaults to 1 (spec §4.3: "clamped to [1, len) else defaults to 1").
func (r *Room) resolveLayerIndex(i int) int {
	n := len(r.layers)
	if i >= 1 && i < n {
		return i
	}
	return 1
}

// Point is an integer canvas coordinate, mirroring raster.Point without
// importing the raster package into the room's public API.
type Point struct{ X, Y int }

// Stamp invokes a brush at a single point on layer i and rebroadcasts the
// originating unreliable packet to every peer except the sender.
func (r *Room) Stamp(senderAddr string, i int, brushID int, x, y int, color codec.Pixel, size int, pressure uint8, angle int, rawPacket []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.resolveLayerIndex(i)
	target := r.layers[idx]
	r.dirty = true

	b := r.catalog.Get(brushID)
	writes := b.Stamp(brush.Params{
		CenterX: x, CenterY: y,
		Color:        color,
		Size:         size,
		Pressure:     pressure,
		AngleDegrees: angle,
		Width:        r.width, Height: r.height,
	})
	target.WriteAll(writes)

	r.rebroadcastUnreliableLocked(senderAddr, rawPacket)
}

// StrokeLine stamps the brush at every point of a pre-rasterized line (spec
// §4.5), then rebroadcasts the originating packet.
func (r *Room) StrokeLine(senderAddr string, i int, brushID int, points []Point, color codec.Pixel, size int, pressure uint8, angle int, rawPacket []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.resolveLayerIndex(i)
	target := r.layers[idx]
	r.dirty = true

	b := r.catalog.Get(brushID)
	for _, pt := range points {
		writes := b.Stamp(brush.Params{
			CenterX: pt.X, CenterY: pt.Y,
			Color:        color,
			Size:         size,
			Pressure:     pressure,
			AngleDegrees: angle,
			Width:        r.width, Height: r.height,
		})
		target.WriteAll(writes)
	}

	r.rebroadcastUnreliableLocked(senderAddr, rawPacket)
}

// RegisterPeer adds addr to the unreliable peer set if not already present,
// per spec §4.3's peer-discovery rule.
func (r *Room) RegisterPeer(addr *net.UDPAddr) {
	key := addr.String()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.peers[key]; !ok {
		r.peers[key] = addr
	}
}

// rebroadcastUnreliableLocked assumes r.mu is already held; see
// broadcastFrameLocked.
func (r *Room) rebroadcastUnreliableLocked(senderAddr string, payload []byte) {
	if r.udpConn == nil {
		return
	}
	for key, addr := range r.peers {
		if key == senderAddr {
			continue
		}
		if _, err := r.udpConn.WriteToUDP(payload, addr); err != nil {
			// Best-effort: a single peer failing must not abort the rest.
			continue
		}
	}
}

// BroadcastUnreliableToAll sends payload to every known peer except
// senderAddr, used for CURSOR packets which are not addressed to a specific
// layer.
func (r *Room) BroadcastUnreliableToAll(senderAddr string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rebroadcastUnreliableLocked(senderAddr, payload)
}
