// Package boundedbuffer provides a fixed-capacity buffer shared between
// a pipeline's receive thread and its process thread: the receive
// thread inserts up to free_space entries and silently drops the rest
// once full, while the process thread periodically drains the whole
// buffer in one swap.
package boundedbuffer

import (
	"sync"
	"time"
)

// BoundedBuffer is a fixed-capacity queue safe for concurrent use by one
// writer and any number of readers. Insert never blocks on buffer state
// and never grows past Capacity: once full, further inserts are
// dropped until the next Clear/CopyAndClear.
type BoundedBuffer[T any] struct {
	mu       sync.Mutex
	buf      []T
	capacity int
	full     bool
	notify   chan struct{}
}

// New allocates a BoundedBuffer with room for capacity entries.
func New[T any](capacity int) *BoundedBuffer[T] {
	return &BoundedBuffer[T]{
		buf:      make([]T, 0, capacity),
		capacity: capacity,
		notify:   make(chan struct{}),
	}
}

// Insert appends as many of entries as fit in the remaining free space,
// dropping the rest, then wakes any goroutine blocked in
// WaitForPullAll.
func (b *BoundedBuffer[T]) Insert(entries []T) {
	b.mu.Lock()
	b.insertLocked(entries)
	b.mu.Unlock()
}

// TryInsert behaves like Insert but returns false immediately instead
// of blocking if the buffer's mutex is currently held.
func (b *BoundedBuffer[T]) TryInsert(entries []T) bool {
	if !b.mu.TryLock() {
		return false
	}
	b.insertLocked(entries)
	b.mu.Unlock()
	return true
}

func (b *BoundedBuffer[T]) insertLocked(entries []T) {
	if !b.full {
		freeSpace := b.capacity - len(b.buf)
		if len(entries) >= freeSpace {
			entries = entries[:freeSpace]
			b.full = true
		}
		b.buf = append(b.buf, entries...)
	}
	close(b.notify)
	b.notify = make(chan struct{})
}

// CopyAndClear returns a copy of the buffer's current contents and
// empties it, restoring full free space.
func (b *BoundedBuffer[T]) CopyAndClear() []T {
	b.mu.Lock()
	out := make([]T, len(b.buf))
	copy(out, b.buf)
	b.buf = b.buf[:0]
	b.full = false
	b.mu.Unlock()
	return out
}

// Clear discards the buffer's contents without returning them.
func (b *BoundedBuffer[T]) Clear() {
	b.mu.Lock()
	b.buf = b.buf[:0]
	b.full = false
	b.mu.Unlock()
}

// TryClear behaves like Clear but does nothing if the buffer's mutex is
// currently held.
func (b *BoundedBuffer[T]) TryClear() bool {
	if !b.mu.TryLock() {
		return false
	}
	b.buf = b.buf[:0]
	b.full = false
	b.mu.Unlock()
	return true
}

// WaitForPullAll blocks until the next Insert/TryInsert call (even one
// whose entries were silently dropped because the buffer was already
// full), then returns CopyAndClear's result with ok=true. If timeout
// elapses first, it returns ok=false and the buffer is left untouched.
//
// The original implementation waited on a condition variable paired
// with a throwaway local mutex instead of the buffer's own lock, so a
// notify sent between the waiter unlocking and entering its wait could
// be lost entirely. Waiting on a channel captured under the same lock
// that guards every mutation closes that window: the channel can only
// be closed by a holder of the lock, and the waiter either observes it
// already closed or is guaranteed to see the next close.
func (b *BoundedBuffer[T]) WaitForPullAll(timeout time.Duration) (entries []T, ok bool) {
	b.mu.Lock()
	ch := b.notify
	b.mu.Unlock()

	select {
	case <-ch:
		return b.CopyAndClear(), true
	case <-time.After(timeout):
		return nil, false
	}
}

// Full reports whether the buffer has reached capacity since its last
// Clear/CopyAndClear.
func (b *BoundedBuffer[T]) Full() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.full
}

// Empty reports whether the buffer currently holds no entries.
func (b *BoundedBuffer[T]) Empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf) == 0
}

// Capacity returns the buffer's fixed maximum entry count.
func (b *BoundedBuffer[T]) Capacity() int {
	return b.capacity
}
