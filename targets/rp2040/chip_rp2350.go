//go:build rp2350

package main

import "machine"

// TIMER0 moved on the RP2350; the raw registers sit after the alarm block
const (
	chipName  = "rp2350"
	timerBase = 0x400B0000
	timerRawH = timerBase + 0x24
	timerRawL = timerBase + 0x28
)

var (
	debugUARTDevice = machine.UART1
	debugTX         = machine.GPIO36
	debugRX         = machine.GPIO37
)
