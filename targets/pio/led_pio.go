//go:build rp2040 || rp2350

// Package pio drives the LED from a PIO state machine, so the pin changes
// on the PIO clock edge after the FIFO write rather than after a GPIO
// register round trip.
package pio

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

var ErrNoStateMachine = errors.New("no free PIO state machine")

// buildLEDProgram: each FIFO word sets the pin to its low bit
func buildLEDProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestPins, 1).Encode(), // 1: out pins, 1
		// .wrap
	}
}

const ledPIOOrigin = 0

// LEDOutput implements core.OutputLine on a PIO state machine
type LEDOutput struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pin    machine.Pin
	offset uint8
}

// NewLEDOutput claims a state machine, loads the program and drives pin low
func NewLEDOutput(pin uint8) (*LEDOutput, error) {
	pioNum, smNum, ok := allocatePIO()
	if !ok {
		return nil, ErrNoStateMachine
	}
	pioHW := rp2pio.PIO0
	if pioNum == 1 {
		pioHW = rp2pio.PIO1
	}

	o := &LEDOutput{
		pio: pioHW,
		sm:  pioHW.StateMachine(smNum),
		pin: machine.Pin(pin),
	}
	if err := o.init(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *LEDOutput) init() error {
	o.sm.TryClaim()

	program := buildLEDProgram()
	offset, err := o.pio.AddProgram(program, ledPIOOrigin)
	if err != nil {
		return err
	}
	o.offset = offset

	o.pin.Configure(machine.PinConfig{Mode: o.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetOutPins(o.pin, 1)
	// Shift right so the low bit goes out first; explicit pull, no autopull
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(1, 0)

	// Pin directions only stick after Init
	o.sm.Init(offset, cfg)
	o.sm.SetPindirsConsecutive(o.pin, 1, true)
	o.sm.SetPinsConsecutive(o.pin, 1, false)
	o.sm.SetEnabled(true)
	return nil
}

func (o *LEDOutput) put(word uint32) {
	for o.sm.IsTxFIFOFull() {
	}
	o.sm.TxPut(word)
}

func (o *LEDOutput) SetHigh() {
	o.put(1)
}

func (o *LEDOutput) SetLow() {
	o.put(0)
}

// Stop disables the state machine and leaves the pin low
func (o *LEDOutput) Stop() {
	o.sm.SetEnabled(false)
	o.sm.ClearFIFOs()
	o.sm.SetPinsConsecutive(o.pin, 1, false)
}
