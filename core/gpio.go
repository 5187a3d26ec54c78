// GPIO line adapters
// Turn a registered GPIODriver pin into the InputLine/OutputLine the blink
// logic consumes.
package core

import (
	"context"
	"errors"
)

// ErrNoEdgeSupport is returned when the GPIO driver cannot report edges
var ErrNoEdgeSupport = errors.New("gpio driver has no edge detection")

// edgeBacklog is how many unobserved edges a PinInput buffers before
// dropping new ones
const edgeBacklog = 4

// PinOutput drives a GPIO pin through the HAL
type PinOutput struct {
	Pin GPIOPin
	drv GPIODriver
}

// NewPinOutput configures pin as an output and drives it low
func NewPinOutput(drv GPIODriver, pin GPIOPin) (*PinOutput, error) {
	return NewPinOutputAt(drv, pin, false)
}

// NewPinOutputAt configures pin as an output with high as its first level.
// An active-low LED passes true so it never lights during setup.
func NewPinOutputAt(drv GPIODriver, pin GPIOPin, high bool) (*PinOutput, error) {
	if err := drv.ConfigureOutput(pin); err != nil {
		return nil, err
	}
	if err := drv.SetPin(pin, high); err != nil {
		return nil, err
	}
	return &PinOutput{Pin: pin, drv: drv}, nil
}

// SetHigh drives the pin high
func (o *PinOutput) SetHigh() {
	o.set(true)
}

// SetLow drives the pin low
func (o *PinOutput) SetLow() {
	o.set(false)
}

func (o *PinOutput) set(value bool) {
	if err := o.drv.SetPin(o.Pin, value); err != nil {
		DebugAsync("[gpio] set pin " + utoa(uint64(o.Pin)) + " failed: " + err.Error())
	}
}

// ActiveLowOutput inverts an output, for LEDs wired to the supply rail
type ActiveLowOutput struct {
	OutputLine
}

// SetHigh turns the LED on by pulling the line low
func (o ActiveLowOutput) SetHigh() {
	o.OutputLine.SetLow()
}

// SetLow turns the LED off by releasing the line high
func (o ActiveLowOutput) SetLow() {
	o.OutputLine.SetHigh()
}

// PinInput is an InputLine backed by a GPIO pin with edge interrupts.
//
// By default every edge is buffered for AwaitRising/AwaitFalling. After
// AttachInterrupt the handler is called directly from the edge interrupt
// instead, and the Await methods are unused.
type PinInput struct {
	Pin   GPIOPin
	drv   GPIODriver
	edges chan bool

	interrupt func()
}

// NewPinInput configures pin as an input and hooks its edge interrupt
func NewPinInput(drv GPIODriver, pin GPIOPin, pull Pull) (*PinInput, error) {
	ed, ok := drv.(EdgeDriver)
	if !ok {
		return nil, ErrNoEdgeSupport
	}

	var err error
	if pull == PullUp {
		err = drv.ConfigureInputPullUp(pin)
	} else {
		err = drv.ConfigureInputPullDown(pin)
	}
	if err != nil {
		return nil, err
	}

	in := &PinInput{
		Pin:   pin,
		drv:   drv,
		edges: make(chan bool, edgeBacklog),
	}
	if err := ed.SetEdgeHandler(pin, in.onEdge); err != nil {
		return nil, err
	}
	return in, nil
}

// AttachInterrupt routes every edge straight to fn (interrupt substrate)
func (in *PinInput) AttachInterrupt(fn func()) {
	in.interrupt = fn
}

// onEdge runs in interrupt context
func (in *PinInput) onEdge(level bool) {
	if in.interrupt != nil {
		in.interrupt()
		return
	}
	select {
	case in.edges <- level:
	default:
	}
}

// ReadLevel samples the pin
func (in *PinInput) ReadLevel() bool {
	level, err := in.drv.GetPin(in.Pin)
	if err != nil {
		return false
	}
	return level
}

// AwaitRising waits for an edge that leaves the pin high
func (in *PinInput) AwaitRising(ctx context.Context) error {
	return in.await(ctx, true)
}

// AwaitFalling waits for an edge that leaves the pin low
func (in *PinInput) AwaitFalling(ctx context.Context) error {
	return in.await(ctx, false)
}

func (in *PinInput) await(ctx context.Context, want bool) error {
	for {
		select {
		case level := <-in.edges:
			if level == want {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
