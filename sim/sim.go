// Package sim runs the blink scheduler against a virtual tick counter.
//
// A Harness stands in for both substrates at once: it is the Waiter the
// scheduler blocks on and the producer feeding scripted button events
// through a real core.EventQueue. Time only moves when the scheduler waits,
// so runs are exact and repeatable.
package sim

import (
	"context"
	"errors"
	"sort"

	"blinkrate/core"
)

// ErrHorizon is returned by Run when the horizon is reached
var ErrHorizon = errors.New("simulation horizon reached")

// Injection is a scripted button event
type Injection struct {
	At      core.Timestamp
	Pressed bool
}

// Harness is a deterministic Waiter with a scripted input
type Harness struct {
	Clock *core.CounterClock
	Queue *core.EventQueue

	// Overhead is added to every deadline wake, modelling dispatch latency
	Overhead core.Ticks

	// Jitter, when set, returns extra latency for the n-th deadline wake
	Jitter func(n int) core.Ticks

	script  []Injection
	wakes   int
	horizon core.Timestamp
}

// NewHarness creates a harness whose clock starts at start
func NewHarness(start core.Timestamp, capacity int) *Harness {
	return &Harness{
		Clock: core.NewCounterClock(start),
		Queue: core.NewEventQueue(capacity),
	}
}

// Inject schedules a button event at an absolute time
func (h *Harness) Inject(at core.Timestamp, pressed bool) {
	h.script = append(h.script, Injection{At: at, Pressed: pressed})
	sort.SliceStable(h.script, func(i, j int) bool { return h.script[i].At < h.script[j].At })
}

// Press schedules a pressed event
func (h *Harness) Press(at core.Timestamp) {
	h.Inject(at, true)
}

// Release schedules a released event
func (h *Harness) Release(at core.Timestamp) {
	h.Inject(at, false)
}

// WaitNext implements core.Waiter. Scripted events at or before the
// deadline win the race; otherwise the clock jumps to the deadline plus
// the configured overhead.
func (h *Harness) WaitNext(ctx context.Context, deadline core.Timestamp) (core.Wake, error) {
	if err := ctx.Err(); err != nil {
		return core.Wake{}, err
	}

	if ev, ok := h.Queue.TryReceive(); ok {
		return core.Wake{Reason: core.WakeEvent, Event: ev}, nil
	}

	if len(h.script) > 0 && h.script[0].At <= deadline {
		next := h.script[0]
		h.script = h.script[1:]
		if h.horizon != 0 && next.At > h.horizon {
			return core.Wake{}, ErrHorizon
		}
		if next.At > h.Clock.Now() {
			h.Clock.Set(next.At)
		}
		// Route through the queue so capacity and ordering apply
		h.Queue.TrySend(core.InputEvent{Pressed: next.Pressed})
		ev, _ := h.Queue.TryReceive()
		return core.Wake{Reason: core.WakeEvent, Event: ev}, nil
	}

	if h.horizon != 0 && deadline > h.horizon {
		return core.Wake{}, ErrHorizon
	}

	wake := deadline.Add(h.Overhead)
	if h.Jitter != nil {
		wake = wake.Add(h.Jitter(h.wakes))
	}
	h.wakes++
	if wake > h.Clock.Now() {
		h.Clock.Set(wake)
	}
	return core.Wake{Reason: core.WakeDeadline}, nil
}

// Run drives s until the next deadline would pass horizon. The scheduler is
// started at the harness clock's current time.
func (h *Harness) Run(ctx context.Context, s *core.Scheduler, horizon core.Timestamp) error {
	h.horizon = horizon
	defer func() { h.horizon = 0 }()

	err := s.Run(ctx)
	if errors.Is(err, ErrHorizon) {
		return nil
	}
	return err
}

// Recorder collects toggles and rate changes for inspection
type Recorder struct {
	Toggles []core.Toggle
	Rates   []Rate
}

// Rate is one applied input event
type Rate struct {
	At      core.Timestamp
	Pressed bool
	Period  core.Ticks
}

// Options returns scheduler options that feed this recorder
func (r *Recorder) Options() []core.SchedulerOption {
	return []core.SchedulerOption{
		core.WithToggleHook(func(t core.Toggle) {
			r.Toggles = append(r.Toggles, t)
		}),
		core.WithRateHook(func(at core.Timestamp, ev core.InputEvent, period core.Ticks) {
			r.Rates = append(r.Rates, Rate{At: at, Pressed: ev.Pressed, Period: period})
		}),
	}
}

// Scheduled returns the scheduled time of every recorded toggle
func (r *Recorder) Scheduled() []core.Timestamp {
	out := make([]core.Timestamp, len(r.Toggles))
	for i, t := range r.Toggles {
		out[i] = t.Scheduled
	}
	return out
}

// Output records the level written to it
type Output struct {
	On     bool
	Writes int
}

func (o *Output) SetHigh() {
	o.On = true
	o.Writes++
}

func (o *Output) SetLow() {
	o.On = false
	o.Writes++
}
