//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// criticalMu stands in for interrupt masking when running under the Go
// scheduler, where "interrupt" producers are plain goroutines.
var criticalMu sync.Mutex

// disableInterrupts enters the critical section. Not reentrant.
func disableInterrupts() State {
	criticalMu.Lock()
	return 0
}

// restoreInterrupts leaves the critical section
func restoreInterrupts(state State) {
	criticalMu.Unlock()
}
