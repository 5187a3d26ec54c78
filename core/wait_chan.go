package core

import "context"

// ChannelWaiter is the cooperative substrate: the edge monitor and the
// scheduler are goroutines and the race is a select over the queue and an
// absolute-time alarm.
type ChannelWaiter struct {
	clock AlarmClock
	queue *EventQueue

	// Set once the closed queue has been reported; later waits run on the
	// alarm alone
	closedSeen bool
}

// NewChannelWaiter creates a waiter over queue and clock
func NewChannelWaiter(clock AlarmClock, queue *EventQueue) *ChannelWaiter {
	return &ChannelWaiter{clock: clock, queue: queue}
}

// WaitNext implements Waiter. The alarm that loses the race is stopped.
func (w *ChannelWaiter) WaitNext(ctx context.Context, deadline Timestamp) (Wake, error) {
	// Already-buffered events beat a deadline that is also due
	if ev, ok := w.queue.TryReceive(); ok {
		return Wake{Reason: WakeEvent, Event: ev}, nil
	}

	alarm, stop := w.clock.Alarm(deadline)
	defer stop()

	var closed <-chan struct{}
	if !w.closedSeen {
		closed = w.queue.Done()
	}

	select {
	case ev := <-w.queue.C():
		return Wake{Reason: WakeEvent, Event: ev}, nil
	case <-alarm:
		// select picks randomly among ready cases; re-check for a tie
		if ev, ok := w.queue.TryReceive(); ok {
			return Wake{Reason: WakeEvent, Event: ev}, nil
		}
		if !w.clock.Now().Reached(deadline) {
			return Wake{Reason: WakeSpurious}, nil
		}
		return Wake{Reason: WakeDeadline}, nil
	case <-closed:
		if ev, ok := w.queue.TryReceive(); ok {
			return Wake{Reason: WakeEvent, Event: ev}, nil
		}
		w.closedSeen = true
		return Wake{Reason: WakeSpurious}, nil
	case <-ctx.Done():
		return Wake{}, ctx.Err()
	}
}
