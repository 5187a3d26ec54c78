package core_test

import (
	"context"
	"math/rand"
	"testing"

	"blinkrate/core"
	"blinkrate/sim"
)

func newSimScheduler(h *sim.Harness, out *sim.Output, rec *sim.Recorder, opts ...core.SchedulerOption) *core.Scheduler {
	opts = append(opts, rec.Options()...)
	return core.NewScheduler(h.Clock, out, h, opts...)
}

func expectScheduled(t *testing.T, rec *sim.Recorder, want []core.Timestamp) {
	t.Helper()
	got := rec.Scheduled()
	if len(got) != len(want) {
		t.Fatalf("Expected %d toggles %v, got %d %v", len(want), want, len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Toggle %d: expected t=%d, got t=%d", i, want[i], got[i])
		}
	}
}

func TestSchedulerScenario(t *testing.T) {
	h := sim.NewHarness(0, core.QueueCapacity)
	h.Press(5000)
	h.Release(5230)

	out := &sim.Output{}
	rec := &sim.Recorder{}
	s := newSimScheduler(h, out, rec)

	if err := h.Run(context.Background(), s, 10000); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	expectScheduled(t, rec, []core.Timestamp{
		2000, 4000, // slow, no events
		5050, 5100, 5150, 5200, // fast, anchored at the press
		7230, 9230, // slow again, anchored at the release
	})

	if len(rec.Rates) != 2 {
		t.Fatalf("Expected 2 rate changes, got %d", len(rec.Rates))
	}
	if rec.Rates[0].At != 5000 || rec.Rates[0].Period != core.FastPeriod {
		t.Errorf("Press: expected fast period at 5000, got %+v", rec.Rates[0])
	}
	if rec.Rates[1].At != 5230 || rec.Rates[1].Period != core.SlowPeriod {
		t.Errorf("Release: expected slow period at 5230, got %+v", rec.Rates[1])
	}
}

func TestSchedulerRateApplication(t *testing.T) {
	h := sim.NewHarness(0, core.QueueCapacity)
	h.Press(3000)

	rec := &sim.Recorder{}
	s := newSimScheduler(h, &sim.Output{}, rec)
	if err := h.Run(context.Background(), s, 3300); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	expectScheduled(t, rec, []core.Timestamp{2000, 3050, 3100, 3150, 3200, 3250, 3300})
}

func TestSchedulerDriftBound(t *testing.T) {
	const toggles = 200
	const overhead = 7

	h := sim.NewHarness(1000, core.QueueCapacity)
	h.Overhead = overhead

	rec := &sim.Recorder{}
	s := newSimScheduler(h, &sim.Output{}, rec)
	horizon := core.Timestamp(1000).Add(core.SlowPeriod * toggles)
	if err := h.Run(context.Background(), s, horizon); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(rec.Toggles) != toggles {
		t.Fatalf("Expected %d toggles, got %d", toggles, len(rec.Toggles))
	}
	for k, tg := range rec.Toggles {
		want := core.Timestamp(1000).Add(core.SlowPeriod * core.Ticks(k+1))
		if tg.Scheduled != want {
			t.Fatalf("Toggle %d scheduled at %d, expected %d", k, tg.Scheduled, want)
		}
		// Error stays within one dispatch latency, independent of k
		if lag := tg.Actual.Sub(want); lag > overhead {
			t.Fatalf("Toggle %d lagged %d ticks, bound is %d", k, lag, overhead)
		}
	}

	// Re-arming relative to the wake time would land at start + k*(P+overhead)
	last := rec.Toggles[toggles-1].Scheduled
	naive := core.Timestamp(1000).Add((core.SlowPeriod + overhead) * toggles)
	if last == naive {
		t.Errorf("Schedule accumulated dispatch latency: last toggle at %d", last)
	}
}

func TestSchedulerDriftBoundWithJitter(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	h := sim.NewHarness(0, core.QueueCapacity)
	h.Jitter = func(int) core.Ticks { return core.Ticks(rng.Intn(40)) }

	rec := &sim.Recorder{}
	s := newSimScheduler(h, &sim.Output{}, rec)
	h.Press(10)
	if err := h.Run(context.Background(), s, 10+core.Timestamp(core.FastPeriod)*500); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for k, tg := range rec.Toggles {
		want := core.Timestamp(10).Add(core.FastPeriod * core.Ticks(k+1))
		if tg.Scheduled != want {
			t.Fatalf("Toggle %d scheduled at %d, expected %d", k, tg.Scheduled, want)
		}
		if tg.Actual.Sub(want) >= 40 {
			t.Fatalf("Toggle %d lag exceeds jitter bound", k)
		}
	}
}

func TestSchedulerCatchUp(t *testing.T) {
	// Each wake is later than a whole period, so deadlines are already due
	// at loop entry
	h := sim.NewHarness(0, core.QueueCapacity)
	h.Overhead = 2500

	rec := &sim.Recorder{}
	s := newSimScheduler(h, &sim.Output{}, rec)
	if err := h.Run(context.Background(), s, 20000); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	catchUps := 0
	for k, tg := range rec.Toggles {
		want := core.Timestamp(core.SlowPeriod * core.Ticks(k+1))
		if tg.Scheduled != want {
			t.Errorf("Toggle %d scheduled at %d, expected %d", k, tg.Scheduled, want)
		}
		if tg.CatchUp {
			catchUps++
		}
	}
	if catchUps == 0 {
		t.Error("Expected catch-up toggles when wakes run a period late")
	}
}

func TestSchedulerEventNeverToggles(t *testing.T) {
	h := sim.NewHarness(0, core.QueueCapacity)
	h.Press(500)
	h.Release(520)
	h.Press(540)

	out := &sim.Output{}
	rec := &sim.Recorder{}
	s := newSimScheduler(h, out, rec)
	// Each event lands before the previous one's deadline; stop short of 590
	if err := h.Run(context.Background(), s, 589); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(rec.Rates) != 3 {
		t.Fatalf("Expected 3 rate changes, got %d", len(rec.Rates))
	}
	if len(rec.Toggles) != 0 {
		t.Errorf("Rate changes must not flip the output, got toggles %v", rec.Scheduled())
	}
	if out.On {
		t.Error("Output should still be off")
	}
	if out.Writes != 1 {
		t.Errorf("Only the initial SetLow should have been written, got %d writes", out.Writes)
	}
}

func TestSchedulerRepeatedPressReanchors(t *testing.T) {
	h := sim.NewHarness(0, core.QueueCapacity)
	h.Press(3000)
	h.Press(3020)

	out := &sim.Output{}
	rec := &sim.Recorder{}
	s := newSimScheduler(h, out, rec)
	if err := h.Run(context.Background(), s, 3200); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(rec.Rates) != 2 {
		t.Fatalf("Second identical press must still be processed, got %d rate changes", len(rec.Rates))
	}
	for _, r := range rec.Rates {
		if r.Period != core.FastPeriod {
			t.Errorf("Expected fast period, got %d", r.Period)
		}
	}
	// Output after the 2000 toggle is on; the second press does not change it
	expectScheduled(t, rec, []core.Timestamp{2000, 3070, 3120, 3170})
	if rec.Toggles[0].On != true || rec.Toggles[1].On != false {
		t.Error("Toggles should alternate starting from the level set at 2000")
	}
}

func TestSchedulerTieGoesToEvent(t *testing.T) {
	h := sim.NewHarness(0, core.QueueCapacity)
	h.Press(2000) // Same instant as the first deadline

	rec := &sim.Recorder{}
	s := newSimScheduler(h, &sim.Output{}, rec)
	if err := h.Run(context.Background(), s, 2100); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	expectScheduled(t, rec, []core.Timestamp{2050, 2100})
}

func TestSchedulerCustomPeriods(t *testing.T) {
	h := sim.NewHarness(0, core.QueueCapacity)
	h.Press(250)

	rec := &sim.Recorder{}
	s := newSimScheduler(h, &sim.Output{}, rec, core.WithPeriods(100, 10))
	if err := h.Run(context.Background(), s, 280); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	expectScheduled(t, rec, []core.Timestamp{100, 200, 260, 270, 280})
}

func TestSchedulerSpuriousWakeContinues(t *testing.T) {
	clock := core.NewCounterClock(0)
	w := &spuriousWaiter{clock: clock, spurious: 3}
	rec := &sim.Recorder{}
	s := core.NewScheduler(clock, &sim.Output{}, w, rec.Options()...)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if err := s.Step(ctx); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
	}
	if len(rec.Toggles) != 1 || rec.Toggles[0].Scheduled != 2000 {
		t.Errorf("Expected a single toggle at 2000 after spurious wakes, got %v", rec.Scheduled())
	}
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	h := sim.NewHarness(0, core.QueueCapacity)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := core.NewScheduler(h.Clock, &sim.Output{}, h)
	if err := s.Run(ctx); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// spuriousWaiter reports a few spurious wakes before advancing to the deadline
type spuriousWaiter struct {
	clock    *core.CounterClock
	spurious int
}

func (w *spuriousWaiter) WaitNext(ctx context.Context, deadline core.Timestamp) (core.Wake, error) {
	if w.spurious > 0 {
		w.spurious--
		return core.Wake{Reason: core.WakeSpurious}, nil
	}
	w.clock.Set(deadline)
	return core.Wake{Reason: core.WakeDeadline}, nil
}
