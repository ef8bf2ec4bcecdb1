// Package ratelimit bounds the rate of unreliable packets accepted from a
// single UDP peer (spec §5's implementation-defined cap on DRAW/LINE/CURSOR
// packets). It is a plain token bucket: one Limiter per peer address, with a
// ClientLimiters set that creates limiters lazily and drops every tracked
// address at once when their number grows past a fixed ceiling.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket for one UDP peer: tokens refill continuously at
// rate per second up to burst, and each accepted packet spends one token.
type Limiter struct {
	rate       float64
	burst      int
	tokens     float64
	lastUpdate time.Time
	mu         sync.Mutex
}

// NewLimiter builds a bucket starting full, so a peer's first burst of
// packets is never penalized for the time before it sent anything.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		rate:       rate,
		burst:      burst,
		tokens:     float64(burst),
		lastUpdate: time.Now(),
	}
}

// Allow reports whether one packet may be accepted right now, spending a
// token if so.
func (l *Limiter) Allow() bool {
	return l.AllowN(1)
}

// AllowN reports whether n packets' worth of tokens are available, spending
// them if so. Used for packet types that should count as heavier than one
// unit against the bucket.
func (l *Limiter) AllowN(n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()

	if l.tokens >= float64(n) {
		l.tokens -= float64(n)
		return true
	}
	return false
}

func (l *Limiter) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(l.lastUpdate).Seconds()
	l.lastUpdate = now

	l.tokens += elapsed * l.rate
	if l.tokens > float64(l.burst) {
		l.tokens = float64(l.burst)
	}
}

// maxTrackedPeers bounds ClientLimiters' memory under a sustained flood of
// distinct UDP source addresses (spoofed or otherwise): the cleanup pass
// resets the whole map rather than growing it without limit.
const maxTrackedPeers = 10000

// ClientLimiters owns one Limiter per UDP peer address, created on first use
// and periodically swept so a room's peer churn doesn't leak memory.
type ClientLimiters struct {
	limiters        map[string]*Limiter
	rate            float64
	burst           int
	mu              sync.RWMutex
	cleanupInterval time.Duration
	stop            chan struct{}
}

// NewClientLimiters starts the background sweep immediately; callers should
// call Stop when the owning transport shuts down.
func NewClientLimiters(rate float64, burst int) *ClientLimiters {
	cl := &ClientLimiters{
		limiters:        make(map[string]*Limiter),
		rate:            rate,
		burst:           burst,
		cleanupInterval: 5 * time.Minute,
		stop:            make(chan struct{}),
	}
	go cl.cleanup()
	return cl
}

// Get returns the limiter for peerAddr (addr.String() of the UDP sender),
// creating one on first sight of that address.
func (cl *ClientLimiters) Get(peerAddr string) *Limiter {
	cl.mu.RLock()
	limiter, ok := cl.limiters[peerAddr]
	cl.mu.RUnlock()

	if ok {
		return limiter
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if limiter, ok := cl.limiters[peerAddr]; ok {
		return limiter
	}

	limiter = NewLimiter(cl.rate, cl.burst)
	cl.limiters[peerAddr] = limiter
	return limiter
}

// Remove drops peerAddr's limiter, e.g. once a room is torn down.
func (cl *ClientLimiters) Remove(peerAddr string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	delete(cl.limiters, peerAddr)
}

// Stop ends the background cleanup sweep.
func (cl *ClientLimiters) Stop() {
	close(cl.stop)
}

func (cl *ClientLimiters) cleanup() {
	ticker := time.NewTicker(cl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cl.stop:
			return
		case <-ticker.C:
			cl.mu.Lock()
			if len(cl.limiters) > maxTrackedPeers {
				cl.limiters = make(map[string]*Limiter)
			}
			cl.mu.Unlock()
		}
	}
}
