package services

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sync"

	"golang.org/x/crypto/blake2b"
)

const defaultDedupCapacity = 1024

// DedupCache recognizes re-sent webhook notifications by content
// fingerprint. Facebook keeps re-sending "edited" events for profile
// picture comment threads with no real delta; the cache suppresses the
// repeats. Bounded FIFO: inserting a distinct key beyond capacity evicts
// the oldest surviving key.
//
// Safe for concurrent use; hash, lookup and insert happen inside a single
// critical section so two in-flight requests can never both see the same
// key as absent.
type DedupCache struct {
	mu       sync.Mutex
	capacity int
	order    []string
	seen     map[string]struct{}
}

// NewDedupCache creates a cache with the given capacity. Non-positive
// capacities fall back to the default of 1024.
func NewDedupCache(capacity int) *DedupCache {
	if capacity <= 0 {
		capacity = defaultDedupCapacity
	}
	return &DedupCache{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
	}
}

// ShouldSuppress reports whether a notification with this canonical field
// set has been seen before. The first call for a given field set records
// it and returns false; subsequent calls return true until the key is
// evicted.
func (c *DedupCache) ShouldSuppress(fields map[string]any) bool {
	key, err := fingerprint(fields)
	if err != nil {
		// Unhashable payloads are never suppressed.
		slog.Warn("Failed to fingerprint webhook payload", "error", err)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[key]; ok {
		return true
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.seen, oldest)
	}

	c.seen[key] = struct{}{}
	c.order = append(c.order, key)
	return false
}

// Len returns the number of fingerprints currently cached.
func (c *DedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// fingerprint serializes the fields deterministically (encoding/json
// sorts map keys) and hashes them with a 128-bit blake2b digest.
func fingerprint(fields map[string]any) (string, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}

	h, err := blake2b.New(16, nil)
	if err != nil {
		return "", err
	}
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}
