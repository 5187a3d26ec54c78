//go:build tinygo

package core

// Cortex-M0+ has no 64-bit atomics, so the counter is guarded by masking
// interrupts for the duration of the access.

// loadTicks reads a tick counter
func loadTicks(p *uint64) uint64 {
	state := disableInterrupts()
	v := *p
	restoreInterrupts(state)
	return v
}

// storeTicks writes a tick counter
func storeTicks(p *uint64, v uint64) {
	state := disableInterrupts()
	*p = v
	restoreInterrupts(state)
}
