//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"time"

	tarm "github.com/tarm/serial"
)

var ErrNoDevice = errors.New("serial: no device given")

// tarmPort gets Read, Write, Close and Flush straight from tarm/serial.
// With a ReadTimeout set, an idle Read returns (0, io.EOF).
type tarmPort struct {
	*tarm.Port
}

// Open opens cfg.Device as the link port
func Open(cfg *Config) (Port, error) {
	if cfg == nil || cfg.Device == "" {
		return nil, ErrNoDevice
	}

	p, err := tarm.OpenPort(&tarm.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}
	return tarmPort{p}, nil
}
