package core

import (
	"context"
	"runtime"
)

// PollingWaiter is the interrupt + task substrate: the edge monitor runs
// from a pin interrupt and only does a non-blocking send, and the scheduler
// task polls the queue and dispatches the TimerList from the main loop.
//
// Other timers on the same list (watchdog feed, housekeeping) are dispatched
// by the same loop.
type PollingWaiter struct {
	clock  Clock
	queue  *EventQueue
	timers *TimerList
	yield  func()

	deadline Timer
	fired    bool
}

// NewPollingWaiter creates a waiter. yield runs between polls; nil means
// runtime.Gosched.
func NewPollingWaiter(clock Clock, queue *EventQueue, timers *TimerList, yield func()) *PollingWaiter {
	if timers == nil {
		timers = &TimerList{}
	}
	if yield == nil {
		yield = runtime.Gosched
	}
	w := &PollingWaiter{
		clock:  clock,
		queue:  queue,
		timers: timers,
		yield:  yield,
	}
	w.deadline.Handler = w.onDeadline
	return w
}

// Timers returns the list this waiter dispatches
func (w *PollingWaiter) Timers() *TimerList {
	return w.timers
}

func (w *PollingWaiter) onDeadline(t *Timer, now Timestamp) uint8 {
	w.fired = true
	return SF_DONE
}

// WaitNext implements Waiter. The deadline timer is cancelled if an event
// wins.
func (w *PollingWaiter) WaitNext(ctx context.Context, deadline Timestamp) (Wake, error) {
	w.fired = false
	w.deadline.WakeTime = deadline
	w.timers.Schedule(&w.deadline)

	for {
		if ev, ok := w.queue.TryReceive(); ok {
			w.timers.Cancel(&w.deadline)
			return Wake{Reason: WakeEvent, Event: ev}, nil
		}

		w.timers.Dispatch(w.clock.Now())
		if w.fired {
			if ev, ok := w.queue.TryReceive(); ok {
				return Wake{Reason: WakeEvent, Event: ev}, nil
			}
			return Wake{Reason: WakeDeadline}, nil
		}

		if err := ctx.Err(); err != nil {
			w.timers.Cancel(&w.deadline)
			return Wake{}, err
		}
		w.yield()
	}
}
