//go:build rp2040 || rp2350

package main

import (
	"image/color"
	"machine"

	"tinygo.org/x/drivers/ws2812"

	"blinkrate/config"
	"blinkrate/core"
	"blinkrate/targets/pio"
)

// PixelOutput drives a single WS2812 pixel: on shows the configured
// colour, off writes black
type PixelOutput struct {
	dev ws2812.Device
	on  [1]color.RGBA
	off [1]color.RGBA
}

// NewPixelOutput claims pin for a one-pixel strip
func NewPixelOutput(pin machine.Pin, rgb [3]uint8) *PixelOutput {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	o := &PixelOutput{dev: ws2812.New(pin)}
	o.on[0] = color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 0xFF}
	o.off[0] = color.RGBA{A: 0xFF}
	o.SetLow()
	return o
}

func (o *PixelOutput) SetHigh() {
	o.dev.WriteColors(o.on[:])
}

func (o *PixelOutput) SetLow() {
	o.dev.WriteColors(o.off[:])
}

// newLEDOutput builds the LED line the config asks for
func newLEDOutput(drv core.GPIODriver, led config.LEDConfig) (core.OutputLine, error) {
	n, err := config.PinNumber(led.Pin)
	if err != nil {
		return nil, err
	}

	var out core.OutputLine
	switch led.Output {
	case config.OutputWS2812:
		return NewPixelOutput(machine.Pin(n), led.Color), nil
	case config.OutputPIO:
		var p *pio.LEDOutput
		if p, err = pio.NewLEDOutput(uint8(n)); err == nil && led.ActiveLow {
			p.SetHigh()
		}
		out = p
	default:
		out, err = core.NewPinOutputAt(drv, core.GPIOPin(n), led.ActiveLow)
	}
	if err != nil {
		return nil, err
	}
	if led.ActiveLow {
		out = core.ActiveLowOutput{OutputLine: out}
	}
	return out, nil
}
