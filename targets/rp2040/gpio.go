//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"

	"blinkrate/core"
)

// maxGPIO is one past the highest bank-0 pin on either chip
const maxGPIO = 48

var errBadPin = errors.New("no such gpio")

// RPGPIODriver implements core.GPIODriver and core.EdgeDriver on the
// chip's bank-0 GPIO
type RPGPIODriver struct {
	configuredPins map[core.GPIOPin]machine.Pin
}

// NewRPGPIODriver creates a new GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

func (d *RPGPIODriver) configure(pin core.GPIOPin, mode machine.PinMode) error {
	if pin >= maxGPIO {
		return errBadPin
	}
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: mode})
	d.configuredPins[pin] = p
	return nil
}

// ConfigureOutput configures a pin as a digital output
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinOutput)
}

func (d *RPGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPullup)
}

func (d *RPGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPulldown)
}

// SetPin drives a configured output
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	p, ok := d.configuredPins[pin]
	if !ok {
		if err := d.ConfigureOutput(pin); err != nil {
			return err
		}
		p = d.configuredPins[pin]
	}
	p.Set(value)
	return nil
}

// GetPin reads the current pin state
func (d *RPGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	p, ok := d.configuredPins[pin]
	if !ok {
		return false, nil
	}
	return p.Get(), nil
}

// SetEdgeHandler calls fn from the GPIO interrupt on both edges. The
// level is sampled inside the handler, so a bounce that settles before
// the read reports the settled level.
func (d *RPGPIODriver) SetEdgeHandler(pin core.GPIOPin, fn func(level bool)) error {
	p, ok := d.configuredPins[pin]
	if !ok {
		return errBadPin
	}
	return p.SetInterrupt(machine.PinRising|machine.PinFalling, func(p machine.Pin) {
		fn(p.Get())
	})
}
