// Package config holds the blinker's board and timing configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Substrate names
const (
	SubstrateCooperative = "cooperative" // Goroutines racing on channels
	SubstrateInterrupt   = "interrupt"   // Pin interrupt + polled timer list
)

// Output backend names
const (
	OutputGPIO   = "gpio"
	OutputPIO    = "pio"
	OutputWS2812 = "ws2812"
)

var (
	ErrZeroPeriod       = errors.New("period must be non-zero")
	ErrPeriodOrder      = errors.New("fast period must be shorter than slow period")
	ErrZeroCapacity     = errors.New("queue capacity must be non-zero")
	ErrUnknownSubstrate = errors.New("unknown substrate")
	ErrUnknownOutput    = errors.New("unknown output backend")
	ErrBadPin           = errors.New("bad pin name")
)

// ButtonConfig describes the input pin
type ButtonConfig struct {
	Pin       string `json:"pin"`
	ActiveLow bool   `json:"active_low"`
	Pull      string `json:"pull"` // "up" or "down"
}

// LEDConfig describes the output
type LEDConfig struct {
	Pin       string   `json:"pin"`
	ActiveLow bool     `json:"active_low"`
	Output    string   `json:"output"`
	Color     [3]uint8 `json:"color"` // RGB when Output is ws2812
}

// Config is the complete blinker configuration
type Config struct {
	TickRate      uint32       `json:"tick_rate"`   // Ticks per second
	SlowPeriod    uint64       `json:"slow_period"` // Ticks between toggles while released
	FastPeriod    uint64       `json:"fast_period"` // Ticks between toggles while pressed
	QueueCapacity int          `json:"queue_capacity"`
	Substrate     string       `json:"substrate"`
	Debug         bool         `json:"debug"`
	Button        ButtonConfig `json:"button"`
	LED           LEDConfig    `json:"led"`
}

// LoadConfig parses a JSON configuration, fills defaults and validates it
func LoadConfig(jsonData []byte) (*Config, error) {
	var config Config

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyDefaults fills in missing configuration values
func applyDefaults(config *Config) {
	if config.TickRate == 0 {
		config.TickRate = 1000
	}
	if config.SlowPeriod == 0 {
		config.SlowPeriod = 2000
	}
	if config.FastPeriod == 0 {
		config.FastPeriod = 50
	}
	if config.QueueCapacity == 0 {
		config.QueueCapacity = 3
	}
	if config.Substrate == "" {
		config.Substrate = SubstrateCooperative
	}

	if config.Button.Pin == "" {
		config.Button.Pin = "gpio15"
	}
	if config.Button.Pull == "" {
		// A button to ground needs a pull-up, one to the supply a pull-down
		if config.Button.ActiveLow {
			config.Button.Pull = "up"
		} else {
			config.Button.Pull = "down"
		}
	}

	if config.LED.Pin == "" {
		config.LED.Pin = "gpio25"
	}
	if config.LED.Output == "" {
		config.LED.Output = OutputGPIO
	}
	if config.LED.Color == [3]uint8{} {
		config.LED.Color = [3]uint8{0x00, 0x40, 0x00}
	}
}

// Validate rejects configurations the scheduler cannot run
func (c *Config) Validate() error {
	if c.SlowPeriod == 0 || c.FastPeriod == 0 || c.TickRate == 0 {
		return ErrZeroPeriod
	}
	if c.FastPeriod >= c.SlowPeriod {
		return fmt.Errorf("%w: fast=%d slow=%d", ErrPeriodOrder, c.FastPeriod, c.SlowPeriod)
	}
	if c.QueueCapacity <= 0 {
		return ErrZeroCapacity
	}

	switch c.Substrate {
	case SubstrateCooperative, SubstrateInterrupt:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSubstrate, c.Substrate)
	}

	switch c.LED.Output {
	case OutputGPIO, OutputPIO, OutputWS2812:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutput, c.LED.Output)
	}

	if _, err := PinNumber(c.Button.Pin); err != nil {
		return err
	}
	if _, err := PinNumber(c.LED.Pin); err != nil {
		return err
	}

	if c.Button.Pull != "up" && c.Button.Pull != "down" {
		return fmt.Errorf("button pull must be \"up\" or \"down\", got %q", c.Button.Pull)
	}
	return nil
}

// PinNumber parses "gpio15", "GPIO15" or "15"
func PinNumber(name string) (uint32, error) {
	digits := strings.TrimPrefix(strings.ToLower(name), "gpio")
	n, err := strconv.ParseUint(digits, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadPin, name)
	}
	return uint32(n), nil
}

// PullUp reports whether the button input should be pulled up
func (c *Config) PullUp() bool {
	return c.Button.Pull == "up"
}

// DefaultConfig returns the configuration for a Pico with the onboard LED
// and a button from GPIO15 to 3V3
func DefaultConfig() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}
