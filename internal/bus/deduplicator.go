// Package bus moves protocol messages over UDP: one receive loop per
// socket, a sender for outbound instructions, and a deduplicator that
// keeps replayed advisories from producing double entries.
package bus

import (
	"sync"
	"time"

	"solana-decision-core/internal/domain"
)

// DedupKey identifies a decision for duplicate suppression: one mint and
// one message kind per window.
type DedupKey struct {
	Mint domain.Address
	Kind uint8
}

// DedupStats counts deduplicator activity for metrics export.
type DedupStats struct {
	Admitted   uint64
	Duplicates uint64
	Evictions  uint64
}

// Deduplicator suppresses duplicate decisions inside a TTL window with a
// hard capacity bound. Safe for concurrent use.
type Deduplicator struct {
	ttl      time.Duration
	capacity int

	mu    sync.Mutex
	seen  map[DedupKey]time.Time
	stats DedupStats

	now func() time.Time
}

// NewDeduplicator creates a deduplicator with the given window and bound.
func NewDeduplicator(ttl time.Duration, capacity int) *Deduplicator {
	return &Deduplicator{
		ttl:      ttl,
		capacity: capacity,
		seen:     make(map[DedupKey]time.Time),
		now:      time.Now,
	}
}

// CheckAndMark reports whether the key was already seen inside the TTL, and
// marks it either way. Expired entries are re-admitted.
func (d *Deduplicator) CheckAndMark(key DedupKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()

	if at, exists := d.seen[key]; exists && now.Sub(at) <= d.ttl {
		d.stats.Duplicates++
		return true
	}

	if len(d.seen) >= d.capacity {
		d.evictLocked(now)
	}

	d.seen[key] = now
	d.stats.Admitted++
	return false
}

// evictLocked drops expired entries; if nothing is expired, it drops the
// oldest entry to respect the capacity bound.
func (d *Deduplicator) evictLocked(now time.Time) {
	var (
		oldestKey DedupKey
		oldestAt  time.Time
		dropped   bool
	)
	for key, at := range d.seen {
		if now.Sub(at) > d.ttl {
			delete(d.seen, key)
			d.stats.Evictions++
			dropped = true
			continue
		}
		if oldestAt.IsZero() || at.Before(oldestAt) {
			oldestKey, oldestAt = key, at
		}
	}
	if !dropped && !oldestAt.IsZero() {
		delete(d.seen, oldestKey)
		d.stats.Evictions++
	}
}

// Stats returns a snapshot of the counters.
func (d *Deduplicator) Stats() DedupStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Len returns the number of tracked keys.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
