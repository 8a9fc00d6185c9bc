// Package taskqueue provides a thread-safe FIFO queue used by the event loop's
// task ingress and by the HTTP client codec's method correlation queue.
//
// Author: adapted from hioload-ws, for reactorcore.
// License: Apache-2.0
package taskqueue

import (
	"sync"

	"github.com/eapache/queue"
)

// Queue is a mutex-guarded FIFO of T, backed by github.com/eapache/queue's
// auto-growing ring buffer.
type Queue[T any] struct {
	mu sync.Mutex
	q  *queue.Queue
	n  int
}

// New returns an empty Queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{q: queue.New()}
}

// Push appends v to the tail of the queue.
func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.q.Add(v)
	q.n++
}

// Pop removes and returns the head of the queue. ok is false if the queue was
// empty.
func (q *Queue[T]) Pop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.q.Length() == 0 {
		return v, false
	}
	v = q.q.Remove().(T)
	q.n--
	return v, true
}

// Peek returns the head of the queue without removing it.
func (q *Queue[T]) Peek() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.q.Length() == 0 {
		return v, false
	}
	return q.q.Peek().(T), true
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.q.Length()
}

// Clear drops all queued elements, returning the count dropped.
func (q *Queue[T]) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	dropped := q.q.Length()
	q.q = queue.New()
	q.n = 0
	return dropped
}
