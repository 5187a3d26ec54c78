//go:build rp2040

package main

import "machine"

const (
	chipName  = "rp2040"
	timerBase = 0x40054000
	timerRawH = timerBase + 0x24 // TIMERAWH, unlatched
	timerRawL = timerBase + 0x28 // TIMERAWL, unlatched
)

var (
	debugUARTDevice = machine.UART1
	debugTX         = machine.GPIO4
	debugRX         = machine.GPIO5
)
