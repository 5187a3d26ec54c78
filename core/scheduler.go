package core

// Timer represents a scheduled wakeup on a TimerList
type Timer struct {
	WakeTime Timestamp
	Handler  func(t *Timer, now Timestamp) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// TimerList is a wake-time ordered list of timers dispatched from a main loop.
// Mutations run inside the interrupt-disable critical section so pin
// handlers can never observe a half-linked list.
type TimerList struct {
	head *Timer
}

// Schedule adds a timer to the list
func (l *TimerList) Schedule(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	l.remove(t)
	l.insert(t)
}

// Cancel removes a timer if it is still scheduled. Returns false if the
// timer had already fired or was never added.
func (l *TimerList) Cancel(t *Timer) bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	return l.remove(t)
}

// Next returns the earliest wake time, if any timer is pending
func (l *TimerList) Next() (Timestamp, bool) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if l.head == nil {
		return 0, false
	}
	return l.head.WakeTime, true
}

// Len returns the number of scheduled timers
func (l *TimerList) Len() int {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	n := 0
	for t := l.head; t != nil; t = t.Next {
		n++
	}
	return n
}

// Dispatch runs every timer whose WakeTime <= now, in wake order, and
// returns how many fired. Handlers run inside the critical section and
// must not touch the list themselves; return SF_RESCHEDULE after updating
// WakeTime to run again.
func (l *TimerList) Dispatch(now Timestamp) int {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	fired := 0
	for l.head != nil && l.head.WakeTime <= now {
		timer := l.head
		l.head = timer.Next
		timer.Next = nil // Clear Next pointer to avoid circular references

		fired++
		if timer.Handler(timer, now) == SF_RESCHEDULE {
			l.insert(timer)
		}
	}
	return fired
}

// insert links t in sorted order by WakeTime; equal wake times keep FIFO order
func (l *TimerList) insert(t *Timer) {
	if l.head == nil || t.WakeTime < l.head.WakeTime {
		t.Next = l.head
		l.head = t
		return
	}

	current := l.head
	for current.Next != nil && current.Next.WakeTime <= t.WakeTime {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

func (l *TimerList) remove(t *Timer) bool {
	if l.head == nil {
		return false
	}
	if l.head == t {
		l.head = t.Next
		t.Next = nil
		return true
	}
	for current := l.head; current.Next != nil; current = current.Next {
		if current.Next == t {
			current.Next = t.Next
			t.Next = nil
			return true
		}
	}
	return false
}
