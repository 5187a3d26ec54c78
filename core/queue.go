package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrQueueClosed is returned when sending to or receiving from a closed queue
var ErrQueueClosed = errors.New("event queue closed")

// InputEvent is one confirmed transition of the button
type InputEvent struct {
	Pressed bool
}

// EventQueue is the bounded single-producer/single-consumer path from the
// edge monitor to the scheduler. It is the only data shared between them.
//
// Send blocks while the queue is full. TrySend never blocks and drops the
// event instead, which is what an interrupt handler must use.
type EventQueue struct {
	ch        chan InputEvent
	dropped   atomic.Uint32
	closeOnce sync.Once
	done      chan struct{}
}

// NewEventQueue creates a queue holding up to capacity unconsumed events
func NewEventQueue(capacity int) *EventQueue {
	if capacity <= 0 {
		capacity = QueueCapacity
	}
	return &EventQueue{
		ch:   make(chan InputEvent, capacity),
		done: make(chan struct{}),
	}
}

// Send queues ev, waiting for space if the queue is full
func (q *EventQueue) Send(ctx context.Context, ev InputEvent) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.ch <- ev:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend queues ev if there is room. A full or closed queue drops the
// event and returns false; safe to call from interrupt context.
func (q *EventQueue) TrySend(ev InputEvent) bool {
	select {
	case <-q.done:
		return false
	default:
	}

	select {
	case q.ch <- ev:
		return true
	default:
		q.dropped.Add(1)
		RecordTiming(EvtDrop, 0, uint32(len(q.ch)), q.dropped.Load())
		return false
	}
}

// Receive waits for the next event. Buffered events are still delivered
// after Close; ErrQueueClosed is returned once they are drained.
func (q *EventQueue) Receive(ctx context.Context) (InputEvent, error) {
	select {
	case ev := <-q.ch:
		return ev, nil
	default:
	}

	select {
	case ev := <-q.ch:
		return ev, nil
	case <-q.done:
		if ev, ok := q.TryReceive(); ok {
			return ev, nil
		}
		return InputEvent{}, ErrQueueClosed
	case <-ctx.Done():
		return InputEvent{}, ctx.Err()
	}
}

// TryReceive returns the next buffered event without waiting
func (q *EventQueue) TryReceive() (InputEvent, bool) {
	select {
	case ev := <-q.ch:
		return ev, true
	default:
		return InputEvent{}, false
	}
}

// C exposes the receive side for select statements
func (q *EventQueue) C() <-chan InputEvent {
	return q.ch
}

// Done is closed when the queue is closed
func (q *EventQueue) Done() <-chan struct{} {
	return q.done
}

// Close stops accepting events; pending events remain receivable
func (q *EventQueue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

// Len returns the number of buffered events
func (q *EventQueue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity
func (q *EventQueue) Cap() int {
	return cap(q.ch)
}

// Dropped returns how many events TrySend has discarded
func (q *EventQueue) Dropped() uint32 {
	return q.dropped.Load()
}
