package engine

import "github.com/roach88/pulsenet/internal/ir"

// eventQueue is the FIFO of pending pulses for one press.
//
// The queue is unbounded: one delivered pulse can enqueue one event per
// target. It is owned by a single press and needs no locking.
type eventQueue struct {
	events []ir.Event
}

// newEventQueue creates an empty event queue.
func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]ir.Event, 0, 64),
	}
}

// Enqueue adds an event to the back of the queue.
func (q *eventQueue) Enqueue(e ir.Event) {
	q.events = append(q.events, e)
}

// TryDequeue removes and returns the front event.
// Returns (ir.Event{}, false) if the queue is empty.
func (q *eventQueue) TryDequeue() (ir.Event, bool) {
	if len(q.events) == 0 {
		return ir.Event{}, false
	}

	e := q.events[0]
	q.events[0] = ir.Event{}

	// Reuse the backing array once drained instead of creeping forward.
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	return len(q.events)
}
