//go:build rp2040 || rp2350

package main

import (
	"time"

	"blinkrate/core"
	"blinkrate/protocol"
)

const bridgeStatsInterval core.Ticks = 10 * core.TickRate

// edgeReport is one pin transition waiting to go out over USB
type edgeReport struct {
	pin   uint32
	level bool
	clock core.Timestamp
}

// Bridge serves the pin link: the host configures and drives pins with
// frames, and input edges are reported back as they happen
type Bridge struct {
	drv   *RPGPIODriver
	link  usbLink
	clock core.Clock
	dec   *protocol.Decoder
	enc   *protocol.Encoder
	edges chan edgeReport
	rx    [64]byte

	stats     protocol.BridgeCounters
	reported  protocol.BridgeCounters
	nextStats core.Timestamp
}

func NewBridge(drv *RPGPIODriver, link usbLink, clock core.Clock) *Bridge {
	return &Bridge{
		drv:   drv,
		link:  link,
		clock: clock,
		dec:   protocol.NewDecoder(),
		enc:   protocol.NewEncoder(),
		edges: make(chan edgeReport, 16),
	}
}

// Run services USB and the TimerList forever
func (b *Bridge) Run(timers *core.TimerList) {
	for {
		// Recover so a bad frame cannot take the bridge down
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.stats.Errors++
					b.dec.Reset()
					core.DebugPrintln("[bridge] recovered; " + b.stats.String())
				}
			}()

			b.poll()
			b.flushEdges()
			now := b.clock.Now()
			timers.Dispatch(now)
			b.reportStats(now)
		}()

		time.Sleep(100 * time.Microsecond)
	}
}

func (b *Bridge) poll() {
	n, err := b.link.drain(b.rx[:])
	if err != nil {
		b.stats.Errors++
	}
	if n == 0 {
		return
	}
	for _, f := range b.dec.Feed(b.rx[:n]) {
		b.stats.FramesIn++
		b.handle(f)
	}
}

func (b *Bridge) handle(f protocol.Frame) {
	switch f.Kind {
	case protocol.KindHello:
		b.send(protocol.KindHello, protocol.Version, core.TickRate)

	case protocol.KindPing:
		b.send(protocol.KindPing, 0, uint32(b.clock.Now()))

	case protocol.KindSetPin:
		pin, level := protocol.SplitPinValue(f.Value)
		b.drv.SetPin(core.GPIOPin(pin), level)

	case protocol.KindConfigPin:
		pin, mode := protocol.SplitConfigValue(f.Value)
		b.configure(core.GPIOPin(pin), mode)

	default:
		b.stats.Errors++
	}
}

func (b *Bridge) configure(pin core.GPIOPin, mode protocol.PinMode) {
	var err error
	switch mode {
	case protocol.PinModeOutput:
		err = b.drv.ConfigureOutput(pin)
	case protocol.PinModeInputPullUp:
		err = b.drv.ConfigureInputPullUp(pin)
	case protocol.PinModeInputPullDown:
		err = b.drv.ConfigureInputPullDown(pin)
	default:
		b.stats.Errors++
		return
	}
	if err != nil {
		b.stats.Errors++
		return
	}
	if mode == protocol.PinModeOutput {
		return
	}
	b.drv.SetEdgeHandler(pin, func(level bool) {
		// Interrupt context: never block
		select {
		case b.edges <- edgeReport{pin: uint32(pin), level: level, clock: b.clock.Now()}:
		default:
			b.stats.EdgesDropped++
		}
	})
}

func (b *Bridge) flushEdges() {
	for {
		select {
		case e := <-b.edges:
			b.send(protocol.KindEdge, protocol.PinValue(e.pin, e.level), uint32(e.clock))
		default:
			return
		}
	}
}

func (b *Bridge) send(kind protocol.Kind, value, clock uint32) {
	// A short write leaves the host to resync on the next frame
	if !b.link.writeAll(b.enc.Encode(kind, value, clock)) {
		b.stats.Errors++
		return
	}
	b.stats.FramesOut++
}

// reportStats prints the counters at most every bridgeStatsInterval, and
// only when they moved
func (b *Bridge) reportStats(now core.Timestamp) {
	if !now.Reached(b.nextStats) {
		return
	}
	b.nextStats = now.Add(bridgeStatsInterval)
	if b.stats.Changed(b.reported) {
		b.reported = b.stats
		core.DebugPrintln("[bridge] " + b.stats.String())
	}
}
