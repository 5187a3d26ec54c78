package core

import "context"

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// Pull selects the input bias resistor
type Pull uint8

const (
	PullDown Pull = iota
	PullUp
)

// GPIODriver drives pins by number. Implemented by the RP2040/RP2350
// firmware driver, periph.io on a Linux host, and the pin link to a bridge
// board.
type GPIODriver interface {
	ConfigureOutput(pin GPIOPin) error
	ConfigureInputPullUp(pin GPIOPin) error
	ConfigureInputPullDown(pin GPIOPin) error
	SetPin(pin GPIOPin, high bool) error
	GetPin(pin GPIOPin) (high bool, err error)
}

// EdgeDriver is implemented by GPIO drivers that can report pin transitions.
// fn runs in interrupt context on hardware: it must not block.
type EdgeDriver interface {
	SetEdgeHandler(pin GPIOPin, fn func(level bool)) error
}

// InputLine is a digital input that reports edges
type InputLine interface {
	// ReadLevel samples the current level (true = high)
	ReadLevel() bool

	// AwaitRising suspends until the line goes low->high
	AwaitRising(ctx context.Context) error

	// AwaitFalling suspends until the line goes high->low
	AwaitFalling(ctx context.Context) error
}

// PendingClearer is implemented by inputs whose interrupt flag must be
// acknowledged by the handler, or the interrupt re-fires forever
type PendingClearer interface {
	ClearPending()
}

// OutputLine is a digital output
type OutputLine interface {
	SetHigh()
	SetLow()
}

// The firmware registers its driver once at boot
var gpioDriver GPIODriver

func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the registered driver. Calling it before SetGPIODriver
// is a boot-order bug.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("core: no GPIO driver registered")
	}
	return gpioDriver
}
