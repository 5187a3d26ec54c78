//go:build rp2040 || rp2350

package main

import "machine"

// usbLink is the bridge's end of the pin link, carried over USB CDC
// (machine.Serial on both chips)
type usbLink struct {
	port machine.Serialer
}

func openUSBLink() usbLink {
	machine.Serial.Configure(machine.UARTConfig{})
	return usbLink{port: machine.Serial}
}

// drain copies whatever the host has sent into buf without blocking
func (u usbLink) drain(buf []byte) (int, error) {
	n := 0
	for n < len(buf) && u.port.Buffered() > 0 {
		c, err := u.port.ReadByte()
		if err != nil {
			return n, err
		}
		buf[n] = c
		n++
	}
	return n, nil
}

// writeAll reports false if the host stopped taking bytes mid-frame
func (u usbLink) writeAll(frame []byte) bool {
	for len(frame) > 0 {
		n, err := u.port.Write(frame)
		if err != nil || n == 0 {
			return false
		}
		frame = frame[n:]
	}
	return true
}
