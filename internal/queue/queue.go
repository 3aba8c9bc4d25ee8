// Package queue provides the unbounded FIFO conduit between the watchers and
// the dispatcher. Many producers, one consumer.
package queue

import (
	"sync"

	"convertd/internal/event"
)

// Queue is an unbounded multi-producer single-consumer FIFO. Push never
// blocks; Pop blocks until an event is available or the queue is closed.
// Events are delivered in the order their pushes completed.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []event.Event
	closed bool
}

// New creates an empty queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends an event. On a closed queue the event is dropped; producers
// outlive the dispatcher during shutdown and have no delivery target left.
func (q *Queue) Push(ev event.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, ev)
	q.cond.Signal()
}

// Pop removes and returns the oldest event, blocking until one is available.
// The second return is false once the queue is closed and drained.
func (q *Queue) Pop() (event.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		if q.closed {
			return event.Event{}, false
		}
		q.cond.Wait()
	}
	ev := q.items[0]
	q.items = q.items[1:]
	return ev, true
}

// Close marks the queue closed. The consumer still drains buffered events;
// subsequent pushes are dropped.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

// Len reports the number of buffered events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
