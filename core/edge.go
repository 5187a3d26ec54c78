package core

import "context"

// EdgeState is the edge the monitor expects next
type EdgeState uint8

const (
	WaitingForRising EdgeState = iota
	WaitingForFalling
)

func (s EdgeState) String() string {
	if s == WaitingForRising {
		return "WaitingForRising"
	}
	return "WaitingForFalling"
}

// EdgeMonitor turns input transitions into InputEvents on an EventQueue.
// It never filters or debounces: one reported edge is one event.
//
// Run is the goroutine form, suspending on edges and on a full queue.
// HandleInterrupt is the interrupt-handler form and never blocks.
type EdgeMonitor struct {
	line      InputLine
	queue     *EventQueue
	activeLow bool
	state     EdgeState
	clock     Clock
}

// MonitorOption configures an EdgeMonitor
type MonitorOption func(*EdgeMonitor)

// WithActiveLow treats a low level as pressed (button to ground with pull-up)
func WithActiveLow(activeLow bool) MonitorOption {
	return func(m *EdgeMonitor) {
		m.activeLow = activeLow
	}
}

// WithMonitorClock timestamps edge entries in the timing ring
func WithMonitorClock(c Clock) MonitorOption {
	return func(m *EdgeMonitor) {
		m.clock = c
	}
}

// NewEdgeMonitor creates a monitor that starts waiting for the press edge,
// assuming the button is released at startup
func NewEdgeMonitor(line InputLine, queue *EventQueue, opts ...MonitorOption) *EdgeMonitor {
	m := &EdgeMonitor{line: line, queue: queue}
	for _, opt := range opts {
		opt(m)
	}
	m.state = m.pressEdge()
	return m
}

// State returns the edge the monitor is waiting for
func (m *EdgeMonitor) State() EdgeState {
	return m.state
}

// Run publishes events until ctx is cancelled or the queue is closed
func (m *EdgeMonitor) Run(ctx context.Context) error {
	for {
		if err := m.Step(ctx); err != nil {
			return err
		}
	}
}

// Step waits for the expected edge, publishes its event with a blocking
// send, then flips to the opposite edge
func (m *EdgeMonitor) Step(ctx context.Context) error {
	var err error
	if m.state == WaitingForRising {
		err = m.line.AwaitRising(ctx)
	} else {
		err = m.line.AwaitFalling(ctx)
	}
	if err != nil {
		return err
	}

	ev := InputEvent{Pressed: m.pressedAfter(m.state)}
	m.advance()
	m.record(ev)
	return m.queue.Send(ctx, ev)
}

// HandleInterrupt is the pin interrupt body: acknowledge the interrupt,
// sample the level and publish without blocking. On a full queue the event
// is dropped and counted by the queue.
func (m *EdgeMonitor) HandleInterrupt() {
	if pc, ok := m.line.(PendingClearer); ok {
		pc.ClearPending()
	}

	level := m.line.ReadLevel()
	pressed := level != m.activeLow

	// Keep the edge state consistent with the observed level
	if level {
		m.state = WaitingForFalling
	} else {
		m.state = WaitingForRising
	}

	ev := InputEvent{Pressed: pressed}
	if m.queue.TrySend(ev) {
		m.record(ev)
	}
}

// pressEdge is the edge that means "pressed" for this polarity
func (m *EdgeMonitor) pressEdge() EdgeState {
	if m.activeLow {
		return WaitingForFalling
	}
	return WaitingForRising
}

// pressedAfter maps the edge that just happened to a button state
func (m *EdgeMonitor) pressedAfter(s EdgeState) bool {
	return (s == WaitingForRising) != m.activeLow
}

func (m *EdgeMonitor) advance() {
	if m.state == WaitingForRising {
		m.state = WaitingForFalling
	} else {
		m.state = WaitingForRising
	}
}

func (m *EdgeMonitor) record(ev InputEvent) {
	var now Timestamp
	if m.clock != nil {
		now = m.clock.Now()
	}
	RecordTiming(EvtEdge, now, boolToU32(ev.Pressed), 0)
}
