package core

import "context"

// WakeReason says why a Waiter returned
type WakeReason uint8

const (
	WakeDeadline WakeReason = iota // Clock reached the deadline
	WakeEvent                      // An input event is available
	WakeSpurious                   // Woke without either; re-sample and loop
)

// Wake is the outcome of one race between the queue and the deadline
type Wake struct {
	Reason WakeReason
	Event  InputEvent
}

// Waiter races "an input event is available" against "the clock reaches
// deadline". deadline is absolute. When both are ready the event wins.
// The only error a Waiter returns is the context's.
type Waiter interface {
	WaitNext(ctx context.Context, deadline Timestamp) (Wake, error)
}

// ScheduleState is the scheduler's private working state.
// NextDeadline is always LastToggle + Period.
type ScheduleState struct {
	On           bool
	LastToggle   Timestamp
	Period       Ticks
	NextDeadline Timestamp
}

// Toggle describes one output flip
type Toggle struct {
	Scheduled Timestamp // Deadline the flip was due at
	Actual    Timestamp // Clock when the line was driven
	On        bool      // Level after the flip
	CatchUp   bool      // Deadline had already passed at loop entry
}

// Scheduler toggles the output at the current period and switches between
// the slow and fast period as input events arrive.
//
// Deadlines advance by adding the period to the previous deadline, never by
// re-reading the clock after a wake, so wake-up latency does not accumulate.
type Scheduler struct {
	clock  Clock
	out    OutputLine
	waiter Waiter

	slow Ticks
	fast Ticks

	state   ScheduleState
	started bool

	onToggle func(Toggle)
	onRate   func(at Timestamp, ev InputEvent, period Ticks)
}

// SchedulerOption configures a Scheduler
type SchedulerOption func(*Scheduler)

// WithPeriods overrides the released/pressed toggle periods
func WithPeriods(slow, fast Ticks) SchedulerOption {
	return func(s *Scheduler) {
		if slow > 0 {
			s.slow = slow
		}
		if fast > 0 {
			s.fast = fast
		}
	}
}

// WithToggleHook calls fn after every output flip
func WithToggleHook(fn func(Toggle)) SchedulerOption {
	return func(s *Scheduler) {
		s.onToggle = fn
	}
}

// WithRateHook calls fn after every input event is applied
func WithRateHook(fn func(at Timestamp, ev InputEvent, period Ticks)) SchedulerOption {
	return func(s *Scheduler) {
		s.onRate = fn
	}
}

// NewScheduler creates a scheduler driving out
func NewScheduler(clock Clock, out OutputLine, waiter Waiter, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		clock:  clock,
		out:    out,
		waiter: waiter,
		slow:   SlowPeriod,
		fast:   FastPeriod,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start anchors the schedule at the current time with the output off and
// the slow period. Run calls it if it has not been called.
func (s *Scheduler) Start() {
	now := s.clock.Now()
	s.state = ScheduleState{
		On:           false,
		LastToggle:   now,
		Period:       s.slow,
		NextDeadline: now.Add(s.slow),
	}
	s.out.SetLow()
	s.started = true
	DebugAsync("[blink] start period=" + utoa(uint64(s.slow)) + " deadline=" + utoa(uint64(s.state.NextDeadline)))
}

// Run loops until ctx is cancelled and returns ctx.Err()
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.started {
		s.Start()
	}
	for {
		if err := s.Step(ctx); err != nil {
			return err
		}
	}
}

// Step performs one iteration: catch up on a missed deadline, then wait
// for an event or the deadline and react to whichever came first.
func (s *Scheduler) Step(ctx context.Context) error {
	if !s.started {
		s.Start()
	}

	if now := s.clock.Now(); now.Reached(s.state.NextDeadline) {
		s.toggle(now, true)
	}

	wake, err := s.waiter.WaitNext(ctx, s.state.NextDeadline)
	if err != nil {
		return err
	}

	switch wake.Reason {
	case WakeEvent:
		s.apply(wake.Event)
	case WakeDeadline:
		s.toggle(s.clock.Now(), false)
	default:
		RecordTiming(EvtSpurious, s.clock.Now(), 0, 0)
	}
	return nil
}

// toggle flips the output and advances the baseline to the deadline that
// was due, not to now
func (s *Scheduler) toggle(now Timestamp, catchUp bool) {
	s.state.On = !s.state.On
	if s.state.On {
		s.out.SetHigh()
	} else {
		s.out.SetLow()
	}

	due := s.state.NextDeadline
	s.state.LastToggle = due
	s.state.NextDeadline = due.Add(s.state.Period)

	evt := uint8(EvtToggle)
	if catchUp {
		evt = EvtCatchUp
	}
	RecordTiming(evt, due, boolToU32(s.state.On), uint32(now.Sub(due)))

	if s.onToggle != nil {
		s.onToggle(Toggle{Scheduled: due, Actual: now, On: s.state.On, CatchUp: catchUp})
	}
}

// apply changes the period and re-anchors the schedule at now. The output
// is left alone: only a deadline flips it. A repeat of the current level is
// applied the same way.
func (s *Scheduler) apply(ev InputEvent) {
	if ev.Pressed {
		s.state.Period = s.fast
	} else {
		s.state.Period = s.slow
	}

	now := s.clock.Now()
	s.state.LastToggle = now
	s.state.NextDeadline = now.Add(s.state.Period)

	RecordTiming(EvtRateChange, now, boolToU32(ev.Pressed), uint32(s.state.Period))
	DebugAsync("[blink] rate period=" + utoa(uint64(s.state.Period)) + " led=" + onOff(s.state.On))

	if s.onRate != nil {
		s.onRate(now, ev, s.state.Period)
	}
}
