// Package queue provides the thread-safe collector the worker pool pushes
// per-ion results into.
package queue

import "sync"

// Queue is a generic mutex-guarded append-only collector.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// New creates an empty queue with room for capacity items.
func New[T any](capacity int) *Queue[T] {
	return &Queue[T]{items: make([]T, 0, capacity)}
}

// Push appends items.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
}

// Len returns the number of collected items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain returns everything collected so far and empties the queue.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = make([]T, 0, cap(q.items))
	return items
}
