package registry

import (
	"testing"

	"github.com/manpreetbhatti/paintcoop/internal/brush"
)

func TestGetOrCreateIsIdempotent(t *testing.T) {
	reg := New(8, 8, brush.NewCatalog())
	a := reg.GetOrCreate(3)
	b := reg.GetOrCreate(3)
	if a != b {
		t.Fatal("expected the same Room instance for repeated ids")
	}
	if reg.Count() != 1 {
		t.Fatalf("expected 1 room, got %d", reg.Count())
	}
}

func TestGetWithoutCreateReportsMissing(t *testing.T) {
	reg := New(8, 8, brush.NewCatalog())
	if _, ok := reg.Get(5); ok {
		t.Fatal("expected no room to exist yet")
	}
}

func TestAllReturnsSortedByID(t *testing.T) {
	reg := New(8, 8, brush.NewCatalog())
	reg.GetOrCreate(5)
	reg.GetOrCreate(1)
	reg.GetOrCreate(3)

	rooms := reg.All()
	if len(rooms) != 3 || rooms[0].ID != 1 || rooms[1].ID != 3 || rooms[2].ID != 5 {
		t.Fatalf("unexpected order: %+v", rooms)
	}
}
