// Package mcu is the host end of the pin link. A bridge board running the
// firmware's link mode owns the physical button and LED; MCU exposes them
// as a core.GPIODriver with edge reporting, so the host runs the blink
// logic against remote pins exactly as firmware does against local ones.
package mcu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"blinkrate/core"
	"blinkrate/host/serial"
	"blinkrate/protocol"
)

var (
	ErrNotConnected = errors.New("not connected to bridge")
	ErrVersion      = errors.New("bridge protocol version mismatch")
)

// MCU represents a connection to a bridge microcontroller
type MCU struct {
	port serial.Port
	log  *slog.Logger

	writeMu sync.Mutex
	enc     *protocol.Encoder

	mu       sync.Mutex
	levels   map[core.GPIOPin]bool
	handlers map[core.GPIOPin]func(level bool)
	version  uint32
	tickRate uint32
	stats    protocol.DecoderStats

	hello     chan struct{}
	helloOnce sync.Once
	pongs     chan uint32

	connected atomic.Bool
	stop      chan struct{}
	done      chan struct{}
	readErr   error
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU(logger *slog.Logger) *MCU {
	if logger == nil {
		logger = slog.Default()
	}
	return &MCU{
		log:      logger.With("component", "mcu"),
		enc:      protocol.NewEncoder(),
		levels:   make(map[core.GPIOPin]bool),
		handlers: make(map[core.GPIOPin]func(level bool)),
		hello:    make(chan struct{}),
		pongs:    make(chan uint32, 1),
	}
}

// Connect connects to a bridge via serial port
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects to a bridge with a custom serial config
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	return m.Attach(port)
}

// Attach starts the link over an already open port and sends the
// handshake. A leading sync byte lets the bridge drop any partial frame
// left from a previous session.
func (m *MCU) Attach(port serial.Port) error {
	m.port = port
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	m.connected.Store(true)

	go m.readLoop()

	if _, err := port.Write([]byte{protocol.MessageValueSync}); err != nil {
		return fmt.Errorf("write sync: %w", err)
	}
	return m.send(protocol.KindHello, protocol.Version, core.TickRate)
}

// WaitReady blocks until the bridge has answered the handshake
func (m *MCU) WaitReady(ctx context.Context) error {
	select {
	case <-m.hello:
	case <-m.done:
		return m.linkErr()
	case <-ctx.Done():
		return fmt.Errorf("waiting for bridge hello: %w", ctx.Err())
	}

	m.mu.Lock()
	version := m.version
	m.mu.Unlock()
	if version != protocol.Version {
		return fmt.Errorf("%w: bridge=%d host=%d", ErrVersion, version, protocol.Version)
	}
	return nil
}

// Close stops the reader and closes the port
func (m *MCU) Close() error {
	if !m.connected.Swap(false) {
		return nil
	}
	close(m.stop)
	err := m.port.Close()
	<-m.done
	return err
}

// IsConnected returns whether the link is up
func (m *MCU) IsConnected() bool {
	return m.connected.Load()
}

// TickRate returns the bridge's clock rate from the handshake
func (m *MCU) TickRate() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tickRate
}

// Stats returns the link decoder's discard counters
func (m *MCU) Stats() protocol.DecoderStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Ping round-trips a keepalive and returns the bridge clock
func (m *MCU) Ping(ctx context.Context) (uint32, error) {
	// A reply to an earlier ping that timed out is stale
	select {
	case <-m.pongs:
	default:
	}
	if err := m.send(protocol.KindPing, 0, 0); err != nil {
		return 0, err
	}
	select {
	case clock := <-m.pongs:
		return clock, nil
	case <-m.done:
		return 0, m.linkErr()
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// ConfigureOutput claims pin on the bridge as an output
func (m *MCU) ConfigureOutput(pin core.GPIOPin) error {
	return m.send(protocol.KindConfigPin, protocol.ConfigValue(uint32(pin), protocol.PinModeOutput), 0)
}

// ConfigureInputPullUp claims pin as an input with pull-up
func (m *MCU) ConfigureInputPullUp(pin core.GPIOPin) error {
	m.setLevel(pin, true)
	return m.send(protocol.KindConfigPin, protocol.ConfigValue(uint32(pin), protocol.PinModeInputPullUp), 0)
}

// ConfigureInputPullDown claims pin as an input with pull-down
func (m *MCU) ConfigureInputPullDown(pin core.GPIOPin) error {
	m.setLevel(pin, false)
	return m.send(protocol.KindConfigPin, protocol.ConfigValue(uint32(pin), protocol.PinModeInputPullDown), 0)
}

// SetPin drives a bridge output
func (m *MCU) SetPin(pin core.GPIOPin, value bool) error {
	m.setLevel(pin, value)
	return m.send(protocol.KindSetPin, protocol.PinValue(uint32(pin), value), 0)
}

// GetPin returns the last level the bridge reported for pin. Inputs start
// at their pull level until the first edge arrives.
func (m *MCU) GetPin(pin core.GPIOPin) (bool, error) {
	if !m.connected.Load() {
		return false, ErrNotConnected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[pin], nil
}

// SetEdgeHandler registers fn for edges reported on pin. fn runs on the
// link reader goroutine.
func (m *MCU) SetEdgeHandler(pin core.GPIOPin, fn func(level bool)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[pin] = fn
	return nil
}

func (m *MCU) setLevel(pin core.GPIOPin, level bool) {
	m.mu.Lock()
	m.levels[pin] = level
	m.mu.Unlock()
}

func (m *MCU) send(kind protocol.Kind, value, clock uint32) error {
	if !m.connected.Load() {
		return ErrNotConnected
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	frame := m.enc.Encode(kind, value, clock)
	if _, err := m.port.Write(frame); err != nil {
		return fmt.Errorf("send %s: %w", kind, err)
	}
	return nil
}

func (m *MCU) linkErr() error {
	if m.readErr != nil {
		return m.readErr
	}
	return ErrNotConnected
}

// readLoop decodes frames until the port is closed. A read timeout shows
// up as io.EOF with no data and is not fatal.
func (m *MCU) readLoop() {
	defer close(m.done)

	dec := protocol.NewDecoder()
	buffer := make([]byte, 256)

	for {
		select {
		case <-m.stop:
			return
		default:
		}

		n, err := m.port.Read(buffer)
		if n > 0 {
			for _, f := range dec.Feed(buffer[:n]) {
				m.dispatch(f)
			}
			m.mu.Lock()
			m.stats = dec.Stats()
			m.mu.Unlock()
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) && n == 0 {
			select {
			case <-m.stop:
				return
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}

		select {
		case <-m.stop:
		default:
			m.readErr = fmt.Errorf("link read: %w", err)
			m.log.Error("link read failed", "err", err)
		}
		return
	}
}

func (m *MCU) dispatch(f protocol.Frame) {
	switch f.Kind {
	case protocol.KindHello:
		m.mu.Lock()
		m.version = f.Value
		m.tickRate = f.Clock
		m.mu.Unlock()
		m.helloOnce.Do(func() { close(m.hello) })
		m.log.Info("bridge ready", "version", f.Value, "tick_rate", f.Clock)

	case protocol.KindEdge:
		p, level := protocol.SplitPinValue(f.Value)
		pin := core.GPIOPin(p)

		m.mu.Lock()
		m.levels[pin] = level
		fn := m.handlers[pin]
		m.mu.Unlock()

		m.log.Debug("edge", "pin", pin, "level", level, "clock", f.Clock)
		if fn != nil {
			fn(level)
		}

	case protocol.KindPing:
		select {
		case m.pongs <- f.Clock:
		default:
		}

	default:
		m.log.Warn("unexpected frame from bridge", "kind", f.Kind, "seq", f.Seq)
	}
}
