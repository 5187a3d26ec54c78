//go:build rp2040 || rp2350

package main

// Mode selects what the firmware does with the button and LED
type Mode uint8

const (
	// ModeBlink runs the blinker locally
	ModeBlink Mode = iota

	// ModeLink hands the pins to a host over USB; see bridge.go
	ModeLink
)

// linkSelectPin, held low at reset, boots into link mode
const linkSelectPin = 22

// GetMode samples the strap pin once at boot
func GetMode(drv *RPGPIODriver) Mode {
	if err := drv.ConfigureInputPullUp(linkSelectPin); err != nil {
		return ModeBlink
	}
	if level, _ := drv.GetPin(linkSelectPin); !level {
		return ModeLink
	}
	return ModeBlink
}
