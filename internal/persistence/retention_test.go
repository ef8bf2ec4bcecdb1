package persistence

import (
	"testing"
	"time"
)

func TestRetentionSweepTrimsCanvasesPastThreshold(t *testing.T) {
	store := newTestAuditStore(t)
	for i := 0; i < 20; i++ {
		store.RecordEvent("s1", "join", "alice", 7)
	}

	svc := NewRetentionService(store, RetentionConfig{
		Interval:        time.Hour,
		EventThreshold:  10,
		KeepRecentCount: 5,
	})
	svc.sweep()

	count, err := store.EventCount(7)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected sweep to trim to 5 events, got %d", count)
	}
}

func TestRetentionSweepLeavesCanvasesUnderThreshold(t *testing.T) {
	store := newTestAuditStore(t)
	store.RecordEvent("s1", "join", "alice", 2)

	svc := NewRetentionService(store, DefaultRetentionConfig())
	svc.sweep()

	count, err := store.EventCount(2)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected untouched canvas to keep its 1 event, got %d", count)
	}
}
