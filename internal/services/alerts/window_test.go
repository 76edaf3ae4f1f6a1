package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowPrunesExpiredSamples(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindow[int](time.Hour)
	w.now = func() time.Time { return current }

	w.Append(1)
	current = current.Add(30 * time.Minute)
	w.Append(2)
	assert.Equal(t, 2, w.Len())

	// first sample falls outside the hour
	current = current.Add(31 * time.Minute)
	w.Append(3)
	assert.Equal(t, []int{2, 3}, w.Snapshot())

	// everything expires
	current = current.Add(2 * time.Hour)
	assert.Equal(t, 0, w.Len())
}

func TestWindowCount(t *testing.T) {
	w := NewWindow[string](time.Hour)
	w.Append("a")
	w.Append("b")
	w.Append("a")

	assert.Equal(t, 2, w.Count(func(s string) bool { return s == "a" }))
	assert.Equal(t, 1, w.Count(func(s string) bool { return s == "b" }))
	assert.Equal(t, 0, w.Count(func(s string) bool { return s == "c" }))
}

func TestWindowSnapshotIsCopy(t *testing.T) {
	w := NewWindow[int](time.Hour)
	w.Append(1)

	snap := w.Snapshot()
	snap[0] = 99

	assert.Equal(t, []int{1}, w.Snapshot())
}
