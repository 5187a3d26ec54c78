//go:build rp2040 || rp2350

package pio

// Two PIO blocks with four state machines each; bit pio*4+sm is set once
// that machine is taken
var claimedSM uint8

// allocatePIO claims the lowest free state machine
func allocatePIO() (pioNum, smNum uint8, ok bool) {
	for i := uint8(0); i < 8; i++ {
		if claimedSM&(1<<i) == 0 {
			claimedSM |= 1 << i
			return i / 4, i % 4, true
		}
	}
	return 0, 0, false
}
