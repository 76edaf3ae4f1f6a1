package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryBackend is a bounded in-process exact-tier backend for development
// and tests. Eviction is oldest-insert-first once capacity is reached.
type MemoryBackend struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	order    []string
	capacity int
}

// NewMemoryBackend creates an in-memory backend holding at most capacity entries
func NewMemoryBackend(capacity int) *MemoryBackend {
	return &MemoryBackend{
		entries:  make(map[string]memoryEntry, capacity),
		capacity: capacity,
	}
}

// Get fetches the cached bytes for key, honoring expiry
func (mb *MemoryBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	entry, ok := mb.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(mb.entries, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores bytes under key with a TTL (zero means no expiry)
func (mb *MemoryBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if _, exists := mb.entries[key]; !exists {
		if mb.capacity > 0 && len(mb.entries) >= mb.capacity {
			// Evict the oldest insert
			for len(mb.order) > 0 {
				oldest := mb.order[0]
				mb.order = mb.order[1:]
				if _, ok := mb.entries[oldest]; ok {
					delete(mb.entries, oldest)
					break
				}
			}
		}
		mb.order = append(mb.order, key)
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	mb.entries[key] = memoryEntry{value: value, expiresAt: expiresAt}
	return nil
}

// Len returns the number of live entries
func (mb *MemoryBackend) Len() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.entries)
}
