//go:build rp2040 || rp2350

package main

import (
	"context"
	"machine"
	"time"

	"blinkrate/config"
	"blinkrate/core"
)

const (
	watchdogTimeoutMs = 1000
	watchdogFeed      = 250 // ticks
	housekeeping      = 10 * time.Millisecond
)

func main() {
	// Clear any watchdog state left from before the reset
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	link := openUSBLink()

	cfg := config.DefaultConfig()
	if cfg.Debug {
		InitDebugUART()
	}

	core.SetGPIODriver(NewRPGPIODriver())
	drv := core.MustGPIO().(*RPGPIODriver)

	clock := HardwareClock{}
	timers := &core.TimerList{}
	startWatchdog(timers, clock)

	if GetMode(drv) == ModeLink {
		core.DebugPrintln("mode: link")
		NewBridge(drv, link, clock).Run(timers)
		return
	}

	core.DebugPrintln("mode: blink, substrate " + cfg.Substrate)
	if err := runBlink(drv, cfg, clock, timers); err != nil {
		core.DebugPrintln("blink: " + err.Error())
		core.DumpTimingRing()
		// Stop feeding; the watchdog resets the chip
		timers.Cancel(&watchdogTimer)
		for {
			time.Sleep(time.Second)
		}
	}
}

var watchdogTimer core.Timer

// startWatchdog arms the hardware watchdog and feeds it from the TimerList.
// The feed stops if whatever dispatches the list stops.
func startWatchdog(timers *core.TimerList, clock core.Clock) {
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: watchdogTimeoutMs})
	machine.Watchdog.Start()

	watchdogTimer.WakeTime = clock.Now().Add(watchdogFeed)
	watchdogTimer.Handler = func(t *core.Timer, now core.Timestamp) uint8 {
		machine.Watchdog.Update()
		t.WakeTime = now.Add(watchdogFeed)
		return core.SF_RESCHEDULE
	}
	timers.Schedule(&watchdogTimer)
}

// runBlink assembles monitor, queue, waiter and scheduler for the chosen
// substrate and runs until the scheduler fails
func runBlink(drv *RPGPIODriver, cfg *config.Config, clock HardwareClock, timers *core.TimerList) error {
	btn, err := config.PinNumber(cfg.Button.Pin)
	if err != nil {
		return err
	}
	pull := core.PullDown
	if cfg.PullUp() {
		pull = core.PullUp
	}
	in, err := core.NewPinInput(drv, core.GPIOPin(btn), pull)
	if err != nil {
		return err
	}
	out, err := newLEDOutput(drv, cfg.LED)
	if err != nil {
		return err
	}

	queue := core.NewEventQueue(cfg.QueueCapacity)
	mon := core.NewEdgeMonitor(in, queue,
		core.WithActiveLow(cfg.Button.ActiveLow),
		core.WithMonitorClock(clock))

	ctx := context.Background()
	var waiter core.Waiter
	if cfg.Substrate == config.SubstrateInterrupt {
		in.AttachInterrupt(mon.HandleInterrupt)
		// The polling waiter dispatches the watchdog timer too
		waiter = core.NewPollingWaiter(clock, queue, timers, nil)
	} else {
		go mon.Run(ctx)
		go dispatchLoop(timers, clock)
		waiter = core.NewChannelWaiter(clock, queue)
	}

	sched := core.NewScheduler(clock, out, waiter,
		core.WithPeriods(core.Ticks(cfg.SlowPeriod), core.Ticks(cfg.FastPeriod)))
	return sched.Run(ctx)
}

// dispatchLoop services the TimerList when the scheduler is not polling it
func dispatchLoop(timers *core.TimerList, clock core.Clock) {
	for {
		timers.Dispatch(clock.Now())
		time.Sleep(housekeeping)
	}
}
