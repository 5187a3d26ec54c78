// Package periph drives local Linux GPIO through periph.io. Driver
// implements core.GPIODriver and core.EdgeDriver, so a button and LED on a
// Raspberry Pi header plug into core.NewPinInput and core.NewPinOutput.
package periph

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"

	"blinkrate/core"
)

var ErrUnknownPin = errors.New("unknown gpio pin")

// edgePoll bounds how long a watcher sleeps in WaitForEdge before checking
// for Close
const edgePoll = 100 * time.Millisecond

// Init loads the periph host drivers. Call once before NewDriver.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	return nil
}

// Driver maps core pin numbers to periph pins named "GPIO<n>"
type Driver struct {
	lookup func(name string) gpio.PinIO
	log    *slog.Logger

	mu       sync.Mutex
	pins     map[core.GPIOPin]gpio.PinIO
	inputs   map[core.GPIOPin]bool
	handlers map[core.GPIOPin]func(level bool)

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewDriver creates a driver using the periph pin registry
func NewDriver(logger *slog.Logger) *Driver {
	return newDriver(gpioreg.ByName, logger)
}

func newDriver(lookup func(string) gpio.PinIO, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		lookup:   lookup,
		log:      logger.With("component", "periph"),
		pins:     make(map[core.GPIOPin]gpio.PinIO),
		inputs:   make(map[core.GPIOPin]bool),
		handlers: make(map[core.GPIOPin]func(level bool)),
		stop:     make(chan struct{}),
	}
}

func (d *Driver) pin(n core.GPIOPin) (gpio.PinIO, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pins[n]; ok {
		return p, nil
	}
	p := d.lookup("GPIO" + strconv.Itoa(int(n)))
	if p == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPin, n)
	}
	d.pins[n] = p
	return p, nil
}

// ConfigureOutput configures a pin as a digital output, initially low
func (d *Driver) ConfigureOutput(n core.GPIOPin) error {
	p, err := d.pin(n)
	if err != nil {
		return err
	}
	return p.Out(gpio.Low)
}

// ConfigureInputPullUp configures a pin as an input with pull-up and edge
// detection on both edges
func (d *Driver) ConfigureInputPullUp(n core.GPIOPin) error {
	return d.configureInput(n, gpio.PullUp)
}

// ConfigureInputPullDown configures a pin as an input with pull-down and
// edge detection on both edges
func (d *Driver) ConfigureInputPullDown(n core.GPIOPin) error {
	return d.configureInput(n, gpio.PullDown)
}

func (d *Driver) configureInput(n core.GPIOPin, pull gpio.Pull) error {
	p, err := d.pin(n)
	if err != nil {
		return err
	}
	if err := p.In(pull, gpio.BothEdges); err != nil {
		return fmt.Errorf("configure %s: %w", p.Name(), err)
	}

	d.mu.Lock()
	started := d.inputs[n]
	d.inputs[n] = true
	d.mu.Unlock()

	if !started {
		d.wg.Add(1)
		go d.watch(n, p)
	}
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *Driver) SetPin(n core.GPIOPin, value bool) error {
	p, err := d.pin(n)
	if err != nil {
		return err
	}
	return p.Out(gpio.Level(value))
}

// GetPin reads the current pin state
func (d *Driver) GetPin(n core.GPIOPin) (bool, error) {
	p, err := d.pin(n)
	if err != nil {
		return false, err
	}
	return p.Read() == gpio.High, nil
}

// SetEdgeHandler registers fn for edges on an input pin. fn runs on the
// pin's watcher goroutine.
func (d *Driver) SetEdgeHandler(n core.GPIOPin, fn func(level bool)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[n] = fn
	return nil
}

// Close stops the edge watchers and halts every pin the driver touched
func (d *Driver) Close() error {
	close(d.stop)
	d.wg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	var first error
	for _, p := range d.pins {
		if err := p.Halt(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// watch turns kernel edge notifications into handler calls, standing in
// for the pin interrupt a microcontroller would raise
func (d *Driver) watch(n core.GPIOPin, p gpio.PinIO) {
	defer d.wg.Done()
	for {
		select {
		case <-d.stop:
			return
		default:
		}

		if !p.WaitForEdge(edgePoll) {
			continue
		}
		level := p.Read() == gpio.High

		d.mu.Lock()
		fn := d.handlers[n]
		d.mu.Unlock()

		d.log.Debug("edge", "pin", p.Name(), "level", level)
		if fn != nil {
			fn(level)
		}
	}
}
