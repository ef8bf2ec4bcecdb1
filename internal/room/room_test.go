package room

import (
	"testing"

	"github.com/manpreetbhatti/paintcoop/internal/brush"
	"github.com/manpreetbhatti/paintcoop/internal/codec"
	"github.com/manpreetbhatti/paintcoop/internal/protocol"
)

// fakeSubscriber is a minimal Subscriber/rawSender for exercising Room in
// isolation, mirroring the teacher's MockClient pattern.
type fakeSubscriber struct {
	id       string
	received []*protocol.Frame
	raw      [][]byte
}

func (f *fakeSubscriber) SendFrame(frame *protocol.Frame) error {
	f.received = append(f.received, frame)
	return nil
}
func (f *fakeSubscriber) SendRaw(b []byte) error {
	f.raw = append(f.raw, b)
	return nil
}
func (f *fakeSubscriber) RemoteLabel() string { return f.id }

func newTestRoom() *Room {
	return New(0, 16, 16, brush.NewCatalog())
}

func TestNewRoomHasPaperAndOneDrawable(t *testing.T) {
	r := newTestRoom()
	if r.LayerCount() != 2 {
		t.Fatalf("expected 2 layers, got %d", r.LayerCount())
	}
}

func TestJoinAssignsSmallestFreeUID(t *testing.T) {
	r := newTestRoom()
	a, b, c := &fakeSubscriber{id: "a"}, &fakeSubscriber{id: "b"}, &fakeSubscriber{id: "c"}

	uidA, _, _ := r.Join(a, "alice", nil)
	uidB, _, _ := r.Join(b, "bob", nil)
	uidC, _, _ := r.Join(c, "carol", nil)

	if uidA != 1 || uidB != 2 || uidC != 3 {
		t.Fatalf("unexpected uids: %d %d %d", uidA, uidB, uidC)
	}

	// S7: B leaves, D joins and gets uid 2 (smallest free).
	r.Leave(b)
	d := &fakeSubscriber{id: "d"}
	uidD, _, _ := r.Join(d, "dave", nil)
	if uidD != 2 {
		t.Fatalf("expected reused uid 2, got %d", uidD)
	}
}

func TestAddLayerRespectsMaxLayers(t *testing.T) {
	r := newTestRoom()
	for i := 0; i < MaxLayers-2; i++ {
		ok, _, _ := r.AddLayer(0)
		if !ok {
			t.Fatalf("expected add to succeed while under capacity (iteration %d)", i)
		}
	}
	if r.LayerCount() != MaxLayers {
		t.Fatalf("expected %d layers, got %d", MaxLayers, r.LayerCount())
	}

	// S6: at capacity, add is a silent no-op.
	ok, _, _ := r.AddLayer(0)
	if ok {
		t.Fatal("expected add to fail at MaxLayers")
	}
	if r.LayerCount() != MaxLayers {
		t.Fatalf("layer count should not change, got %d", r.LayerCount())
	}
}

func TestDeleteLayerRefusesBelowTwoLayers(t *testing.T) {
	r := newTestRoom()
	ok, _ := r.DeleteLayer(1)
	if ok {
		t.Fatal("expected first delete of the only drawable layer to fail")
	}
	if r.LayerCount() != 2 {
		t.Fatalf("expected layer count unchanged at 2, got %d", r.LayerCount())
	}
}

func TestDeleteLayerRejectsIndexZero(t *testing.T) {
	r := newTestRoom()
	r.AddLayer(0)
	ok, _ := r.DeleteLayer(0)
	if ok {
		t.Fatal("expected deleting the paper layer (index 0) to be rejected")
	}
}

func TestReorderLayerRotatesLayers(t *testing.T) {
	r := newTestRoom()
	r.AddLayer(0)
	r.AddLayer(0) // layers: 0(paper) 1 2 3

	layersBefore := r.Layers()
	target := layersBefore[1]

	if !r.ReorderLayer(1, 3) {
		t.Fatal("expected reorder to succeed")
	}
	after := r.Layers()
	if after[3] != target {
		t.Fatal("expected layer originally at 1 to now be at 3")
	}
}

func TestAddLayerBroadcastsToEverySubscriber(t *testing.T) {
	r := newTestRoom()
	a := &fakeSubscriber{id: "a"}
	b := &fakeSubscriber{id: "b"}
	r.Join(a, "a", nil)
	r.Join(b, "b", nil)

	r.AddLayer(0) // broadcasts to all subscribers, not excluded

	if len(a.received) != 1 || len(b.received) != 1 {
		t.Fatalf("expected both subscribers to receive the broadcast, got a=%d b=%d", len(a.received), len(b.received))
	}
}

func TestSetSignatureRoundTrip(t *testing.T) {
	r := newTestRoom()
	a := &fakeSubscriber{id: "a"}
	r.Join(a, "a", nil)

	sig := make([]byte, 256)
	sig[0] = 0xAB
	uid, ok := r.SetSignature(a, sig)
	if !ok || uid != 1 {
		t.Fatalf("expected signature to be stored for uid 1, got uid=%d ok=%v", uid, ok)
	}

	sigs := r.Signatures()
	if got, ok := sigs[1]; !ok || got[0] != 0xAB {
		t.Fatalf("expected stored signature to round trip, got %v ok=%v", got, ok)
	}
}

func TestStampOnPristineLayerMatchesSpecScenario(t *testing.T) {
	r := New(0, 200, 200, brush.NewCatalog())
	layers := r.Layers()

	// S1: round stamp at (100,100), size=5, solid black, radius 2.
	r.Stamp("sender", 1, 0, 100, 100, codec.Pixel{A: 255}, 5, 255, 0, nil)

	target := layers[1]
	for dx := -2; dx <= 2; dx++ {
		for dy := -2; dy <= 2; dy++ {
			if dx*dx+dy*dy <= 4 {
				p := target.At(100+dx, 100+dy)
				if p.A != 255 || p.R != 0 {
					t.Fatalf("expected solid black at (%d,%d), got %+v", 100+dx, 100+dy, p)
				}
			}
		}
	}
}
