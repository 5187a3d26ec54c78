//go:build rp2040 || rp2350

package main

import (
	"machine"

	"blinkrate/core"
)

var debugUART *machine.UART

// InitDebugUART routes core debug output to a spare UART at 115200 baud.
// USB stays free for the pin link.
func InitDebugUART() {
	err := debugUARTDevice.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       debugTX,
		RX:       debugRX,
	})
	if err != nil {
		return
	}
	debugUART = debugUARTDevice

	core.SetDebugWriter(debugPrintln)
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()

	core.DebugPrintln("=== blinkrate " + chipName + " debug ===")
}

func debugPrintln(s string) {
	if debugUART == nil {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
