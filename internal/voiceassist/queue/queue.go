// Package queue provides the bounded per-session transcript queue. Push never
// blocks: the recognition leg must not stall waiting for the dialogue loop.
package queue

import (
	"errors"
	"sync"
)

var ErrFull = errors.New("transcript queue is full")

const DefaultCapacity = 5

// loadFactor is the fill ratio at which NearCapacity starts reporting true.
const loadFactor = 0.8

// Utterance is one finalized transcript waiting for a dialogue turn.
type Utterance struct {
	Text    string
	IsFinal bool
}

// Queue is a fixed-capacity FIFO with a single consumer. A mutex is enough:
// Pop is only ever called from the session's turn loop.
type Queue struct {
	mu       sync.Mutex
	items    []Utterance
	capacity int
}

func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{capacity: capacity}
}

// Push appends the utterance or returns ErrFull. It never blocks.
func (q *Queue) Push(u Utterance) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		return ErrFull
	}
	q.items = append(q.items, u)
	return nil
}

// Pop removes and returns the oldest utterance, or false when empty.
func (q *Queue) Pop() (Utterance, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Utterance{}, false
	}
	u := q.items[0]
	q.items = q.items[1:]
	return u, true
}

// Len returns the number of queued utterances.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// NearCapacity reports whether the queue has reached the advisory threshold.
func (q *Queue) NearCapacity() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return float64(len(q.items)) >= loadFactor*float64(q.capacity)
}
