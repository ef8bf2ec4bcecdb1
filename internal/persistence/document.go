// Package persistence implements the dirty-driven save/load loop of spec
// §4.6: a single JSON-shaped document holding every room's drawable
// layers, PackBits-compressed and base64-encoded per layer.
package persistence

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/manpreetbhatti/paintcoop/internal/registry"
	"github.com/manpreetbhatti/paintcoop/internal/room"
)

// DocumentVersion is the only version this implementation emits and
// accepts (spec §4.6).
const DocumentVersion = 2

// Document is the on-disk shape: a version tag, the process-wide canvas
// dimensions, and every known canvas's drawable layers.
type Document struct {
	Version  int         `json:"version"`
	Width    int         `json:"width"`
	Height   int         `json:"height"`
	Canvases []CanvasDoc `json:"canvases"`
}

// CanvasDoc is one room's persisted state.
type CanvasDoc struct {
	ID         int          `json:"id"`
	LayerCount int          `json:"layer_count"`
	Layers     []LayerEntry `json:"layers"`
}

// LayerEntry is one drawable layer's encoded bitmap, keyed by its
// position in the room (always >= 1; index 0, the paper layer, is never
// persisted since it is always reconstructible opaque white).
type LayerEntry struct {
	Index int    `json:"index"`
	Data  string `json:"data"`
}

// SaveInterval is the periodic wake period of the persistence loop.
const SaveInterval = 60 * time.Second

// Loop drives the periodic-plus-on-demand save described in spec §4.6.
// trigger fires an out-of-band save request (from a SAVE message);
// Run blocks until ctx-like stop is requested by closing stop.
type Loop struct {
	path     string
	registry *registry.Registry
	audit    *AuditStore
	trigger  chan struct{}
}

// NewLoop builds a save loop that writes to path. audit may be nil; when
// set, each room's per-canvas JSON is additionally snapshotted into the
// audit database as a crash-recovery backup independent of the document
// file (SPEC_FULL.md §2).
func NewLoop(path string, reg *registry.Registry, audit *AuditStore) *Loop {
	return &Loop{
		path:     path,
		registry: reg,
		audit:    audit,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests an out-of-band save at the next opportunity, used by
// the session handler's SAVE dispatch. Non-blocking: a pending trigger is
// coalesced with any request already queued.
func (l *Loop) Trigger() {
	select {
	case l.trigger <- struct{}{}:
	default:
	}
}

// Run wakes every SaveInterval and whenever Trigger fires, saving if any
// room is dirty. It returns when stop is closed.
func (l *Loop) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(SaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.saveIfDirty()
		case <-l.trigger:
			l.saveIfDirty()
		}
	}
}

func (l *Loop) saveIfDirty() {
	rooms := l.registry.All()
	anyDirty := false
	for _, r := range rooms {
		if r.Dirty() {
			anyDirty = true
			break
		}
	}
	if !anyDirty {
		return
	}
	if err := Save(l.path, l.registry); err != nil {
		log.Printf("⚠️ persistence write failed, rooms remain dirty: %v", err)
		return
	}
	for _, r := range rooms {
		r.ClearDirty()
	}
	l.snapshotToAudit(rooms)
}

func (l *Loop) snapshotToAudit(rooms []*room.Room) {
	if l.audit == nil {
		return
	}
	for _, r := range rooms {
		layers := r.Layers()
		cd := CanvasDoc{ID: r.ID, LayerCount: len(layers) - 1}
		for i := 1; i < len(layers); i++ {
			cd.Layers = append(cd.Layers, LayerEntry{Index: i, Data: layers[i].Serialize()})
		}
		blob, err := json.Marshal(cd)
		if err != nil {
			continue
		}
		if err := l.audit.SaveCanvasSnapshot(r.ID, blob); err != nil {
			log.Printf("⚠️ audit snapshot failed for canvas %d: %v", r.ID, err)
		}
	}
}

// Save builds and atomically writes the document, regardless of dirty
// state (used directly by callers that already checked, and by tests).
func Save(path string, reg *registry.Registry) error {
	doc := Document{
		Version: DocumentVersion,
		Width:   reg.Width(),
		Height:  reg.Height(),
	}
	for _, r := range reg.All() {
		layers := r.Layers()
		cd := CanvasDoc{ID: r.ID, LayerCount: len(layers) - 1}
		for i := 1; i < len(layers); i++ {
			cd.Layers = append(cd.Layers, LayerEntry{Index: i, Data: layers[i].Serialize()})
		}
		doc.Canvases = append(doc.Canvases, cd)
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	log.Printf("🗜️ saved %s canvases (%s) to %s", humanize.Comma(int64(len(doc.Canvases))), humanize.Bytes(uint64(len(raw))), path)
	return nil
}

// Load reads path (if it exists) and recreates every canvas it describes,
// on demand, via reg (spec §4.6 "Loading"). A missing file is not an
// error: the server starts with an empty registry.
func Load(path string, reg *registry.Registry) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("persistence: malformed document %s: %w", path, err)
	}

	for _, cd := range doc.Canvases {
		r := reg.GetOrCreate(cd.ID)
		for r.LayerCount() < cd.LayerCount+1 {
			if ok, _, _ := r.AddLayer(0); !ok {
				break
			}
		}
		layers := r.Layers()
		for _, entry := range cd.Layers {
			if entry.Index < 1 || entry.Index >= len(layers) {
				continue
			}
			if err := layers[entry.Index].LoadFrom(entry.Data, doc.Width, doc.Height); err != nil {
				log.Printf("⚠️ failed to decode canvas %d layer %d: %v", cd.ID, entry.Index, err)
				continue
			}
			layers[entry.Index].Serialize() // cache the just-loaded form, clearing dirty

		}
		r.ClearDirty()
	}

	log.Printf("🌸 loaded %s canvases from %s", humanize.Comma(int64(len(doc.Canvases))), filepath.Base(path))
	return nil
}
