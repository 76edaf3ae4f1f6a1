package alerts

import (
	"sync"
	"time"
)

type windowEntry[T any] struct {
	at time.Time
	v  T
}

// Window is a bounded, time-pruned collection of timestamped samples for one
// metric category. Safe for concurrent use; samples older than the retention
// interval are dropped on every append.
type Window[T any] struct {
	mu        sync.Mutex
	retention time.Duration
	entries   []windowEntry[T]
	now       func() time.Time
}

// NewWindow creates a window that retains samples for the given interval
func NewWindow[T any](retention time.Duration) *Window[T] {
	return &Window[T]{
		retention: retention,
		now:       time.Now,
	}
}

// Append records a sample at the current time and prunes expired ones
func (w *Window[T]) Append(v T) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.pruneLocked(now)
	w.entries = append(w.entries, windowEntry[T]{at: now, v: v})
}

// pruneLocked drops entries older than the retention window. Entries are in
// append order, so the first young entry bounds the cut.
func (w *Window[T]) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.retention)
	firstLive := len(w.entries)
	for i, e := range w.entries {
		if e.at.After(cutoff) {
			firstLive = i
			break
		}
	}
	if firstLive > 0 {
		w.entries = append(w.entries[:0:0], w.entries[firstLive:]...)
	}
}

// Snapshot returns the live samples in append order
func (w *Window[T]) Snapshot() []T {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(w.now())
	out := make([]T, len(w.entries))
	for i, e := range w.entries {
		out[i] = e.v
	}
	return out
}

// Count returns the number of live samples matching the predicate
func (w *Window[T]) Count(match func(T) bool) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(w.now())
	n := 0
	for _, e := range w.entries {
		if match(e.v) {
			n++
		}
	}
	return n
}

// Len returns the number of live samples
func (w *Window[T]) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked(w.now())
	return len(w.entries)
}
