// Package registry maps canvas identifiers to Rooms, creating rooms
// on-demand (spec §4.3: "A Room is created on first reference to its
// identifier, by a login or a load").
package registry

import (
	"sort"
	"sync"

	"github.com/manpreetbhatti/paintcoop/internal/brush"
	"github.com/manpreetbhatti/paintcoop/internal/room"
)

// Registry is the process-wide canvas id -> *Room map, with its own mutex
// distinct from any individual Room's mutex.
type Registry struct {
	width, height int
	catalog       *brush.Catalog

	mu    sync.Mutex
	rooms map[int]*room.Room
}

// Width and Height report the process-wide canvas dimensions (spec §6.5).
func (reg *Registry) Width() int  { return reg.width }
func (reg *Registry) Height() int { return reg.height }

// New creates an empty registry for canvases of the given fixed dimensions.
func New(width, height int, catalog *brush.Catalog) *Registry {
	return &Registry{
		width:   width,
		height:  height,
		catalog: catalog,
		rooms:   make(map[int]*room.Room),
	}
}

// GetOrCreate returns the Room for id, creating it (paper + one drawable
// layer) if this is the first reference.
func (reg *Registry) GetOrCreate(id int) *room.Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[id]; ok {
		return r
	}
	r := room.New(id, reg.width, reg.height, reg.catalog)
	reg.rooms[id] = r
	return r
}

// Get returns the Room for id if it exists, without creating one.
func (reg *Registry) Get(id int) (*room.Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[id]
	return r, ok
}

// All returns every known room, ordered by canvas id, for the persistence
// loop's scan pass.
func (reg *Registry) All() []*room.Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	ids := make([]int, 0, len(reg.rooms))
	for id := range reg.rooms {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*room.Room, len(ids))
	for i, id := range ids {
		out[i] = reg.rooms[id]
	}
	return out
}

// Count returns the number of known rooms.
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}
