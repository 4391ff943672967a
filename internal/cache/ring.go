// Package cache holds the bounded, process-wide stores of recent analyses
// and prompts.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is the number of entries kept when none is configured.
const DefaultCapacity = 10

// Entry is one cached value.
type Entry[T any] struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Value     T         `json:"value"`
}

// Ring is a fixed-capacity store that evicts its oldest entry once full.
// Entries are never read through the LRU, so recency equals insertion order.
// Pushes are serialized; List reads an immutable snapshot and never blocks
// on writers.
type Ring[T any] struct {
	mu       sync.Mutex
	entries  *lru.Cache[string, Entry[T]]
	capacity int
	clone    func(T) T
	now      func() time.Time
	snapshot atomic.Pointer[[]Entry[T]]
}

// NewRing creates a ring holding at most capacity entries. clone copies
// values on insert and on read; nil means values are stored as given.
func NewRing[T any](capacity int, clone func(T) T) *Ring[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if clone == nil {
		clone = func(v T) T { return v }
	}
	entries, err := lru.New[string, Entry[T]](capacity)
	if err != nil {
		panic("cache: " + err.Error())
	}
	r := &Ring[T]{
		entries:  entries,
		capacity: capacity,
		clone:    clone,
		now:      time.Now,
	}
	empty := []Entry[T]{}
	r.snapshot.Store(&empty)
	return r
}

// Push stores an independent copy of v and returns its entry.
func (r *Ring[T]) Push(v T) Entry[T] {
	e := Entry[T]{
		ID:    uuid.New().String(),
		Value: r.clone(v),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e.Timestamp = r.now().UTC()
	r.entries.Add(e.ID, e)

	keys := r.entries.Keys()
	snap := make([]Entry[T], 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if got, ok := r.entries.Peek(keys[i]); ok {
			snap = append(snap, got)
		}
	}
	r.snapshot.Store(&snap)

	return Entry[T]{ID: e.ID, Timestamp: e.Timestamp, Value: r.clone(e.Value)}
}

// List returns the entries newest-first. Values are copies.
func (r *Ring[T]) List() []Entry[T] {
	snap := *r.snapshot.Load()
	out := make([]Entry[T], len(snap))
	for i, e := range snap {
		out[i] = Entry[T]{ID: e.ID, Timestamp: e.Timestamp, Value: r.clone(e.Value)}
	}
	return out
}

// Latest returns the newest entry.
func (r *Ring[T]) Latest() (Entry[T], bool) {
	snap := *r.snapshot.Load()
	if len(snap) == 0 {
		return Entry[T]{}, false
	}
	e := snap[0]
	return Entry[T]{ID: e.ID, Timestamp: e.Timestamp, Value: r.clone(e.Value)}, true
}

// Len returns the number of entries held.
func (r *Ring[T]) Len() int {
	return len(*r.snapshot.Load())
}

// Capacity returns the maximum number of entries held.
func (r *Ring[T]) Capacity() int { return r.capacity }
