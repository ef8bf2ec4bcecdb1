package persistence

import (
	"log"
	"sync"
	"time"
)

// RetentionConfig bounds the audit log's growth, grounded on the
// teacher's update-log compaction service but simplified: the audit log
// has no merge step, so compaction here is pure trimming.
type RetentionConfig struct {
	Interval        time.Duration
	EventThreshold  int
	KeepRecentCount int
}

// DefaultRetentionConfig matches the cadence the teacher used for its own
// compaction service.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		Interval:        5 * time.Minute,
		EventThreshold:  500,
		KeepRecentCount: 100,
	}
}

// RetentionService periodically trims each canvas's audit history once it
// reaches EventThreshold, keeping only the KeepRecentCount newest rows.
type RetentionService struct {
	store  *AuditStore
	config RetentionConfig
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewRetentionService builds a trimmer over store.
func NewRetentionService(store *AuditStore, config RetentionConfig) *RetentionService {
	return &RetentionService{store: store, config: config, stop: make(chan struct{})}
}

// Start launches the periodic sweep in the background.
func (s *RetentionService) Start() {
	s.wg.Add(1)
	go s.run()
	log.Printf("🗜️ audit retention started (interval: %v, threshold: %d events)", s.config.Interval, s.config.EventThreshold)
}

// Stop halts the sweep and waits for the current pass to finish.
func (s *RetentionService) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *RetentionService) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *RetentionService) sweep() {
	ids, err := s.store.DistinctCanvasIDs()
	if err != nil {
		log.Printf("⚠️ audit retention: failed to list canvases: %v", err)
		return
	}

	trimmed := 0
	for _, id := range ids {
		count, err := s.store.EventCount(id)
		if err != nil || count < s.config.EventThreshold {
			continue
		}
		if err := s.store.TrimOldEvents(id, s.config.KeepRecentCount); err != nil {
			log.Printf("⚠️ audit retention: trim failed for canvas %d: %v", id, err)
			continue
		}
		trimmed++
	}
	if trimmed > 0 {
		log.Printf("🗜️ trimmed audit history for %d canvases", trimmed)
	}
}
