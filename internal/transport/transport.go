// Package transport owns the two network-facing workers described in
// spec §4.3/§4.4: the reliable acceptor that spawns one session handler
// per TCP connection, and the per-room unreliable UDP worker that binds
// on first login and services DRAW/LINE/CURSOR packets for its canvas.
package transport

import (
	"log"
	"math"
	"net"
	"sync"
	"time"

	"github.com/manpreetbhatti/paintcoop/internal/codec"
	"github.com/manpreetbhatti/paintcoop/internal/protocol"
	"github.com/manpreetbhatti/paintcoop/internal/raster"
	"github.com/manpreetbhatti/paintcoop/internal/ratelimit"
	"github.com/manpreetbhatti/paintcoop/internal/registry"
	"github.com/manpreetbhatti/paintcoop/internal/room"
	"github.com/manpreetbhatti/paintcoop/internal/session"
)

// recvTimeout bounds the UDP worker's blocking recv, used purely for
// liveness polling (spec §4.3).
const recvTimeout = 1 * time.Second

// unreliablePacketsPerSecond and unreliableBurst bound how fast any one
// peer endpoint may feed DRAW/LINE/CURSOR packets into a room, a defensive
// ceiling the spec leaves to the implementation (§5: "No explicit cap on
// rooms or concurrent sessions; implementations MAY impose one").
const (
	unreliablePacketsPerSecond = 240
	unreliableBurst            = 480
)

// Server wires the registry to the network: an Acceptor for the reliable
// channel and an on-demand unreliable worker per canvas.
type Server struct {
	registry *registry.Registry
	udpBase  int // P_C; a room's port is udpBase + 1 + canvas_id

	audit   session.AuditSink
	save    session.SaveFunc
	limiter *ratelimit.ClientLimiters

	mu      sync.Mutex
	workers map[int]*net.UDPConn
}

// New builds a Server bound to reg. udpBase is the reliable port P_C;
// unreliable ports are derived from it per spec §6.4.
func New(reg *registry.Registry, udpBase int, audit session.AuditSink, save session.SaveFunc) *Server {
	return &Server{
		registry: reg,
		udpBase:  udpBase,
		audit:    audit,
		save:     save,
		limiter:  ratelimit.NewClientLimiters(unreliablePacketsPerSecond, unreliableBurst),
		workers:  make(map[int]*net.UDPConn),
	}
}

// ListenAndServeTCP accepts connections on addr until it errors, spawning
// one session handler per accepted connection (spec §2, component 7).
func (s *Server) ListenAndServeTCP(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	log.Printf("🌸 listening for reliable connections on %s", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		h := session.New(conn, s.registry, s.ActivateRoom, s.save, s.audit)
		go h.Serve()
	}
}

// ActivateRoom ensures room r's unreliable worker is running, binding its
// socket on first call (spec §4.3: Created -> Active transition).
func (s *Server) ActivateRoom(r *room.Room) (int, error) {
	port := s.udpBase + 1 + r.ID

	s.mu.Lock()
	if _, ok := s.workers[r.ID]; ok {
		s.mu.Unlock()
		return port, nil
	}

	addr := &net.UDPAddr{Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	s.workers[r.ID] = conn
	s.mu.Unlock()

	r.SetUDPConn(conn)
	log.Printf("🗜️ canvas %d active, unreliable socket on port %d", r.ID, port)
	go s.runUDPWorker(r, conn)
	return port, nil
}

// runUDPWorker is the one blocking-recv-with-timeout loop per Active room
// (spec §4.3, §5).
func (s *Server) runUDPWorker(r *room.Room, conn *net.UDPConn) {
	buf := make([]byte, protocol.PacketSize)
	for {
		conn.SetReadDeadline(time.Now().Add(recvTimeout))
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			log.Printf("⚠️ canvas %d unreliable read error: %v", r.ID, err)
			return
		}

		pkt, ok := protocol.UnmarshalPacket(buf[:n])
		if !ok {
			continue // malformed: short datagram, discard (spec §7)
		}
		if !s.limiter.Get(addr.String()).Allow() {
			continue // peer exceeded its burst; drop silently, same as a lost packet
		}
		r.RegisterPeer(addr)
		s.dispatchPacket(r, addr, pkt, buf[:n])
	}
}

func (s *Server) dispatchPacket(r *room.Room, addr *net.UDPAddr, pkt *protocol.Packet, raw []byte) {
	payload := append([]byte(nil), raw...)
	color := pixelOf(pkt)

	switch pkt.Type {
	case protocol.MsgDraw:
		r.Stamp(addr.String(), int(pkt.LayerID), int(pkt.BrushID), int(pkt.X), int(pkt.Y), color, int(pkt.Size), pkt.Pressure, int(pkt.EX), payload)
	case protocol.MsgLine:
		x0, y0, x1, y1 := int(pkt.X), int(pkt.Y), int(pkt.EX), int(pkt.EY)
		angle := lineAngleDegrees(x0, y0, x1, y1)
		points := raster.BresenhamLine(x0, y0, x1, y1)
		roomPoints := make([]room.Point, len(points))
		for i, p := range points {
			roomPoints[i] = room.Point{X: p.X, Y: p.Y}
		}
		r.StrokeLine(addr.String(), int(pkt.LayerID), int(pkt.BrushID), roomPoints, color, int(pkt.Size), pkt.Pressure, angle, payload)
	case protocol.MsgCursor:
		r.BroadcastUnreliableToAll(addr.String(), payload)
	default:
		// unknown unreliable type: ignore (spec §7)
	}
}

func pixelOf(pkt *protocol.Packet) codec.Pixel {
	return codec.Pixel{R: pkt.R, G: pkt.G, B: pkt.B, A: pkt.A}
}

func lineAngleDegrees(x0, y0, x1, y1 int) int {
	return int(math.Round(math.Atan2(float64(y1-y0), float64(x1-x0)) * 180 / math.Pi))
}
