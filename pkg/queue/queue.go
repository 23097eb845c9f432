// Package queue provides a bounded, lossy FIFO used to hand frames from the
// capture goroutine to the slower decision goroutine.
//
// Put never blocks: when the queue is full the oldest item is evicted to make
// room. Get blocks until an item arrives or the timeout elapses. The queue is
// safe for multiple producers and one consumer.
package queue

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrEmpty is returned by Get when no item arrived before the timeout.
var ErrEmpty = errors.New("queue: empty")

// ErrClosed is returned by Get once the queue is closed and drained.
var ErrClosed = errors.New("queue: closed")

// Lossy is a fixed-capacity FIFO that sheds its oldest item when full.
type Lossy[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T // ring buffer
	head   int
	size   int
	closed bool

	dropped atomic.Uint64
	put     atomic.Uint64
}

// New creates a queue holding at most capacity items.
// A capacity below 1 is treated as 1.
func New[T any](capacity int) *Lossy[T] {
	if capacity < 1 {
		capacity = 1
	}
	q := &Lossy[T]{items: make([]T, capacity)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Put inserts item, evicting the oldest item if the queue is full.
// It returns true if an item was evicted. Puts after Close are ignored.
func (q *Lossy[T]) Put(item T) (evicted bool) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}

	capacity := len(q.items)
	if q.size == capacity {
		var zero T
		q.items[q.head] = zero
		q.head = (q.head + 1) % capacity
		q.size--
		evicted = true
		q.dropped.Add(1)
	}

	q.items[(q.head+q.size)%capacity] = item
	q.size++
	q.put.Add(1)

	q.cond.Signal()
	q.mu.Unlock()
	return evicted
}

// Get removes and returns the oldest item. It waits up to timeout for one to
// arrive and returns ErrEmpty if none does. A non-positive timeout polls.
func (q *Lossy[T]) Get(timeout time.Duration) (T, error) {
	var zero T

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 && !q.closed && timeout > 0 {
		deadline := time.Now().Add(timeout)
		timer := time.AfterFunc(timeout, func() {
			q.mu.Lock()
			q.cond.Broadcast()
			q.mu.Unlock()
		})
		defer timer.Stop()

		for q.size == 0 && !q.closed && time.Now().Before(deadline) {
			q.cond.Wait()
		}
	}

	if q.size == 0 {
		if q.closed {
			return zero, ErrClosed
		}
		return zero, ErrEmpty
	}

	item := q.items[q.head]
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.size--
	return item, nil
}

// Close wakes any waiting consumer. Items already queued can still be read.
func (q *Lossy[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Len returns the number of queued items.
func (q *Lossy[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the queue capacity.
func (q *Lossy[T]) Cap() int {
	return len(q.items)
}

// Snapshot returns the queued items oldest first without removing them.
func (q *Lossy[T]) Snapshot() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, q.size)
	for i := 0; i < q.size; i++ {
		out[i] = q.items[(q.head+i)%len(q.items)]
	}
	return out
}

// Stats reports how many items were put and how many were evicted unread.
type Stats struct {
	Put     uint64
	Dropped uint64
}

// Stats returns the running put/drop counters.
func (q *Lossy[T]) Stats() Stats {
	return Stats{Put: q.put.Load(), Dropped: q.dropped.Load()}
}
