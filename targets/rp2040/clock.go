//go:build rp2040 || rp2350

package main

import (
	"runtime/volatile"
	"sync"
	"time"
	"unsafe"

	"blinkrate/core"
)

const (
	usPerTick  = 1000000 / core.TickRate
	alarmSlice = 5 * time.Millisecond
)

var (
	rawH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerRawH)))
	rawL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerRawL)))
)

// HardwareClock derives scheduler ticks from the chip's 1MHz timer
type HardwareClock struct{}

// hardwareUptime reads the full 64-bit microsecond counter
func hardwareUptime() uint64 {
	// High, low, high again: retry if the low word rolled over mid-read
	for {
		high1 := rawH.Get()
		low := rawL.Get()
		high2 := rawH.Get()
		if high1 == high2 {
			return uint64(high1)<<32 | uint64(low)
		}
	}
}

// Now returns milliseconds since boot
func (HardwareClock) Now() core.Timestamp {
	return core.Timestamp(hardwareUptime() / usPerTick)
}

// Alarm closes the returned channel once Now reaches at. The sleeping
// goroutine re-reads the counter each slice, so a sleep that overshoots
// never pushes later alarms back.
func (c HardwareClock) Alarm(at core.Timestamp) (<-chan struct{}, func()) {
	fired := make(chan struct{})
	stop := make(chan struct{})
	go func() {
		for {
			now := c.Now()
			if now.Reached(at) {
				close(fired)
				return
			}
			d := at.Sub(now).Duration(core.TickRate)
			if d > alarmSlice {
				d = alarmSlice
			}
			time.Sleep(d)
			select {
			case <-stop:
				return
			default:
			}
		}
	}()

	var once sync.Once
	return fired, func() { once.Do(func() { close(stop) }) }
}
