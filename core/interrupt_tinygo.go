//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts so a pin handler cannot preempt a
// TimerList or tick counter update. Returns the previous state.
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
