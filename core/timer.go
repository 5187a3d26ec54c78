package core

import "time"

// TickRate is the default timebase frequency (1kHz, one tick per millisecond)
const TickRate = 1000

// Default blink timing, in ticks
const (
	SlowPeriod    Ticks = 2000 // Released button: toggle every two seconds
	FastPeriod    Ticks = 50   // Pressed button
	QueueCapacity       = 3    // Buffered input events before producers block or drop
)

// Timestamp is an absolute point on the free-running tick counter
type Timestamp uint64

// Ticks is a span of time on the tick counter
type Ticks uint64

// Add returns t advanced by d
func (t Timestamp) Add(d Ticks) Timestamp {
	return t + Timestamp(d)
}

// Sub returns the span from u to t, or zero if u is after t
func (t Timestamp) Sub(u Timestamp) Ticks {
	if u >= t {
		return 0
	}
	return Ticks(t - u)
}

// Reached reports whether t is at or past deadline
func (t Timestamp) Reached(deadline Timestamp) bool {
	return t >= deadline
}

// TicksFromDuration converts a wall-clock duration to ticks at the given rate
func TicksFromDuration(d time.Duration, rate uint32) Ticks {
	if d <= 0 {
		return 0
	}
	// Whole seconds and the remainder are scaled separately so the product
	// cannot overflow for any uptime
	sec, frac := uint64(d/time.Second), uint64(d%time.Second)
	r := uint64(rate)
	return Ticks(sec*r + frac*r/uint64(time.Second))
}

// Duration converts ticks at the given rate back to a wall-clock duration
func (d Ticks) Duration(rate uint32) time.Duration {
	r := uint64(rate)
	whole, rem := uint64(d)/r, uint64(d)%r
	return time.Duration(whole*uint64(time.Second) + rem*uint64(time.Second)/r)
}

// Clock is the monotonic tick source shared read-only by all components
type Clock interface {
	Now() Timestamp
}

// AlarmClock is a Clock that can wake a waiter at an absolute timestamp.
// The returned channel is closed once Now() reaches at; stop abandons the alarm.
type AlarmClock interface {
	Clock
	Alarm(at Timestamp) (c <-chan struct{}, stop func())
}

// CounterClock is a tick counter advanced by a tick interrupt or a simulator.
// Loads and stores go through the platform helpers in timer_go.go/timer_tinygo.go.
type CounterClock struct {
	ticks uint64
}

// NewCounterClock creates a counter starting at start
func NewCounterClock(start Timestamp) *CounterClock {
	c := &CounterClock{}
	c.Set(start)
	return c
}

// Now returns the current counter value
func (c *CounterClock) Now() Timestamp {
	return Timestamp(loadTicks(&c.ticks))
}

// Set overwrites the counter (for testing/hardware integration)
func (c *CounterClock) Set(t Timestamp) {
	storeTicks(&c.ticks, uint64(t))
}

// Advance moves the counter forward by d and returns the new value
func (c *CounterClock) Advance(d Ticks) Timestamp {
	now := c.Now().Add(d)
	c.Set(now)
	return now
}

// Tick advances the counter by one; suitable as a SysTick handler body
func (c *CounterClock) Tick() {
	c.Advance(1)
}

// SystemClock derives ticks from the Go runtime monotonic clock
type SystemClock struct {
	start time.Time
	rate  uint32
}

// NewSystemClock creates a clock whose zero is the moment of creation
func NewSystemClock(rate uint32) *SystemClock {
	if rate == 0 {
		rate = TickRate
	}
	return &SystemClock{start: time.Now(), rate: rate}
}

// Now returns ticks elapsed since the clock was created
func (c *SystemClock) Now() Timestamp {
	return Timestamp(TicksFromDuration(time.Since(c.start), c.rate))
}

// Alarm fires when the tick counter reaches at. The timer is armed against the
// absolute target, so time spent before arming is not added to the wait.
func (c *SystemClock) Alarm(at Timestamp) (<-chan struct{}, func()) {
	fired := make(chan struct{})
	target := c.start.Add(Ticks(at).Duration(c.rate))
	wait := time.Until(target)
	if wait <= 0 {
		close(fired)
		return fired, func() {}
	}
	t := time.AfterFunc(wait, func() { close(fired) })
	return fired, func() { t.Stop() }
}

// Rate returns the tick frequency in Hz
func (c *SystemClock) Rate() uint32 {
	return c.rate
}
