// Package batch — work queue with deduplication.
// Maintains a seen set so a file reached twice (e.g. via a symlinked
// directory) is converted once.
package batch

// Queue is a FIFO of file paths with deduplication.
type Queue struct {
	items []string
	seen  map[string]bool
	idx   int // current read position
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{
		seen: make(map[string]bool),
	}
}

// Add enqueues a path if it hasn't been seen before.
func (q *Queue) Add(path string) {
	key := NormalizePath(path)
	if q.seen[key] {
		return
	}
	q.seen[key] = true
	q.items = append(q.items, path)
}

// HasNext returns true if there are unprocessed paths.
func (q *Queue) HasNext() bool {
	return q.idx < len(q.items)
}

// Next returns the next unprocessed path and advances the pointer.
func (q *Queue) Next() string {
	p := q.items[q.idx]
	q.idx++
	return p
}

// Len returns the total number of unique paths seen.
func (q *Queue) Len() int {
	return len(q.seen)
}

// All returns all queued paths in discovery order.
func (q *Queue) All() []string {
	return q.items
}
