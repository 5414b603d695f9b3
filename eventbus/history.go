package eventbus

import (
	"sync"
	"time"
)

// ring is a fixed capacity FIFO that overwrites its oldest entry when full.
type ring[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	head     int // next write position
	size     int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &ring[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// push appends item and reports whether the oldest entry was evicted.
func (r *ring[T]) push(item T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.head] = item
	r.head = (r.head + 1) % r.capacity

	if r.size == r.capacity {
		return true
	}
	r.size++
	return false
}

// snapshot returns the entries oldest first.
func (r *ring[T]) snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, r.size)
	start := (r.head - r.size + r.capacity) % r.capacity
	for i := range r.size {
		out[i] = r.items[(start+i)%r.capacity]
	}
	return out
}

func (r *ring[T]) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head = 0
	r.size = 0
}

// HistoryFilter narrows History results. Zero fields match everything.
type HistoryFilter struct {
	Event string    // exact event name
	Since time.Time // entries at or after this instant
	Limit int       // keep only the newest Limit entries
}

// History returns recorded events in chronological order.
func (b *Bus) History(filter HistoryFilter) []Event {
	entries := b.history.snapshot()

	matched := entries[:0]
	for _, e := range entries {
		if filter.Event != "" && e.Name != filter.Event {
			continue
		}
		if !filter.Since.IsZero() && e.Timestamp.Before(filter.Since) {
			continue
		}
		matched = append(matched, e)
	}

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[len(matched)-filter.Limit:]
	}
	return matched
}

// ClearHistory drops every recorded event.
func (b *Bus) ClearHistory() {
	b.history.clear()
}
