// Package queue provides the bounded in-memory ingress queue for the router.
//
// The queue is a thin wrapper over a buffered channel: multi-producer,
// multi-consumer, non-blocking enqueue, timed dequeue. No durability; a
// full queue is backpressure the caller must handle.
package queue

import (
	"time"

	"github.com/solatis/routekeeper/internal/event"
)

// Queue is a bounded MPMC event queue.
type Queue struct {
	ch chan *event.Document
}

// New creates a queue with the given capacity.
func New(capacity int) *Queue {
	return &Queue{ch: make(chan *event.Document, capacity)}
}

// TryEnqueue adds an event without blocking.
// Returns false when the queue is full.
func (q *Queue) TryEnqueue(e *event.Document) bool {
	select {
	case q.ch <- e:
		return true
	default:
		return false
	}
}

// DequeueTimed waits up to timeout for an event.
// Returns (nil, false) on timeout so workers can re-check their stop flag.
func (q *Queue) DequeueTimed(timeout time.Duration) (*event.Document, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case e := <-q.ch:
		return e, true
	case <-timer.C:
		return nil, false
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return cap(q.ch) }
