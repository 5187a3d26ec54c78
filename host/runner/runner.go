// Package runner wires a GPIO driver and a configuration into a running
// blinker on the host: edge monitor, event queue, waiter and scheduler.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"blinkrate/config"
	"blinkrate/core"
)

// pollInterval is the interrupt substrate's main loop period
const pollInterval = 200 * time.Microsecond

// Blinker is an assembled blinker ready to Run
type Blinker struct {
	Clock     core.AlarmClock
	Queue     *core.EventQueue
	Monitor   *core.EdgeMonitor
	Scheduler *core.Scheduler

	input     *core.PinInput
	substrate string
	log       *slog.Logger
}

// Option adjusts a Blinker before it is assembled
type Option func(*options)

type options struct {
	clock core.AlarmClock
	hooks []core.SchedulerOption
}

// WithClock replaces the wall clock, for tests
func WithClock(c core.AlarmClock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithSchedulerOptions passes extra options to the scheduler
func WithSchedulerOptions(opts ...core.SchedulerOption) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, opts...)
	}
}

// New claims the button and LED pins on drv and assembles the blinker
func New(drv core.GPIODriver, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Blinker, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = core.NewSystemClock(cfg.TickRate)
	}

	btnPin, err := config.PinNumber(cfg.Button.Pin)
	if err != nil {
		return nil, err
	}
	ledPin, err := config.PinNumber(cfg.LED.Pin)
	if err != nil {
		return nil, err
	}

	pull := core.PullDown
	if cfg.PullUp() {
		pull = core.PullUp
	}
	in, err := core.NewPinInput(drv, core.GPIOPin(btnPin), pull)
	if err != nil {
		return nil, fmt.Errorf("button %s: %w", cfg.Button.Pin, err)
	}

	pin, err := core.NewPinOutputAt(drv, core.GPIOPin(ledPin), cfg.LED.ActiveLow)
	if err != nil {
		return nil, fmt.Errorf("led %s: %w", cfg.LED.Pin, err)
	}
	var out core.OutputLine = pin
	if cfg.LED.ActiveLow {
		out = core.ActiveLowOutput{OutputLine: pin}
	}

	b := &Blinker{
		Clock:     o.clock,
		Queue:     core.NewEventQueue(cfg.QueueCapacity),
		input:     in,
		substrate: cfg.Substrate,
		log:       logger,
	}
	b.Monitor = core.NewEdgeMonitor(in, b.Queue,
		core.WithActiveLow(cfg.Button.ActiveLow),
		core.WithMonitorClock(o.clock))

	var waiter core.Waiter
	if cfg.Substrate == config.SubstrateInterrupt {
		in.AttachInterrupt(b.Monitor.HandleInterrupt)
		waiter = core.NewPollingWaiter(o.clock, b.Queue, nil, func() { time.Sleep(pollInterval) })
	} else {
		waiter = core.NewChannelWaiter(o.clock, b.Queue)
	}

	schedOpts := []core.SchedulerOption{
		core.WithPeriods(core.Ticks(cfg.SlowPeriod), core.Ticks(cfg.FastPeriod)),
		core.WithRateHook(func(at core.Timestamp, ev core.InputEvent, period core.Ticks) {
			logger.Info("rate change", "at", uint64(at), "pressed", ev.Pressed, "period", uint64(period))
		}),
	}
	b.Scheduler = core.NewScheduler(o.clock, out, waiter, append(schedOpts, o.hooks...)...)
	return b, nil
}

// Run blinks until ctx is done, which is a clean exit
func (b *Blinker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	monErr := make(chan error, 1)
	if b.substrate == config.SubstrateInterrupt {
		close(monErr)
	} else {
		go func() { monErr <- b.Monitor.Run(ctx) }()
	}

	b.log.Info("blinking", "substrate", b.substrate, "queue", b.Queue.Cap())
	err := b.Scheduler.Run(ctx)
	cancel()

	if merr := <-monErr; merr != nil && !errors.Is(merr, context.Canceled) {
		return fmt.Errorf("edge monitor: %w", merr)
	}
	if dropped := b.Queue.Dropped(); dropped > 0 {
		b.log.Warn("input events dropped", "count", dropped)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
