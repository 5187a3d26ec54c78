package periph

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"periph.io/x/periph/conn/gpio"

	"blinkrate/core"
)

// fakePin implements the parts of gpio.PinIO the driver uses
type fakePin struct {
	gpio.PinIO // nil; unused methods panic

	name string

	mu    sync.Mutex
	level gpio.Level
	pull  gpio.Pull
	edge  gpio.Edge
	outs  []gpio.Level

	edges  chan gpio.Level
	halted bool
}

func newFakePin(name string) *fakePin {
	return &fakePin{name: name, edges: make(chan gpio.Level, 8)}
}

func (p *fakePin) Name() string { return p.name }

func (p *fakePin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pull, p.edge = pull, edge
	return nil
}

func (p *fakePin) Read() gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *fakePin) WaitForEdge(timeout time.Duration) bool {
	select {
	case l := <-p.edges:
		p.mu.Lock()
		p.level = l
		p.mu.Unlock()
		return true
	case <-time.After(timeout):
		return false
	}
}

func (p *fakePin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = l
	p.outs = append(p.outs, l)
	return nil
}

func (p *fakePin) Halt() error {
	p.halted = true
	return nil
}

func testDriver(pins ...*fakePin) *Driver {
	byName := make(map[string]gpio.PinIO)
	for _, p := range pins {
		byName[p.name] = p
	}
	lookup := func(name string) gpio.PinIO {
		if p, ok := byName[name]; ok {
			return p
		}
		return nil
	}
	return newDriver(lookup, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDriverOutput(t *testing.T) {
	led := newFakePin("GPIO25")
	d := testDriver(led)
	defer d.Close()

	out, err := core.NewPinOutput(d, 25)
	if err != nil {
		t.Fatalf("NewPinOutput failed: %v", err)
	}
	out.SetHigh()
	out.SetLow()

	want := []gpio.Level{gpio.Low, gpio.Low, gpio.High, gpio.Low}
	if len(led.outs) != len(want) {
		t.Fatalf("Expected writes %v, got %v", want, led.outs)
	}
	for i := range want {
		if led.outs[i] != want[i] {
			t.Errorf("Write %d: expected %v, got %v", i, want[i], led.outs[i])
		}
	}
}

func TestDriverUnknownPin(t *testing.T) {
	d := testDriver()
	defer d.Close()

	if err := d.ConfigureOutput(3); !errors.Is(err, ErrUnknownPin) {
		t.Errorf("Expected ErrUnknownPin, got %v", err)
	}
}

func TestDriverInputEdges(t *testing.T) {
	button := newFakePin("GPIO15")
	d := testDriver(button)

	in, err := core.NewPinInput(d, 15, core.PullUp)
	if err != nil {
		t.Fatalf("NewPinInput failed: %v", err)
	}
	if button.pull != gpio.PullUp || button.edge != gpio.BothEdges {
		t.Errorf("Expected pull-up with both edges, got %v/%v", button.pull, button.edge)
	}

	q := core.NewEventQueue(core.QueueCapacity)
	mon := core.NewEdgeMonitor(in, q, core.WithActiveLow(true))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	button.edges <- gpio.Low
	if err := mon.Step(ctx); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if ev, _ := q.TryReceive(); !ev.Pressed {
		t.Error("Falling edge on an active-low button should be a press")
	}

	if err := d.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if !button.halted {
		t.Error("Close should halt configured pins")
	}
}

func TestDriverInterruptForm(t *testing.T) {
	button := newFakePin("GPIO15")
	d := testDriver(button)
	defer d.Close()

	in, err := core.NewPinInput(d, 15, core.PullDown)
	if err != nil {
		t.Fatalf("NewPinInput failed: %v", err)
	}

	q := core.NewEventQueue(core.QueueCapacity)
	mon := core.NewEdgeMonitor(in, q)
	in.AttachInterrupt(mon.HandleInterrupt)

	button.edges <- gpio.High
	button.edges <- gpio.Low

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, want := range []bool{true, false} {
		ev, err := q.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive failed: %v", err)
		}
		if ev.Pressed != want {
			t.Errorf("Expected pressed=%v, got %v", want, ev.Pressed)
		}
	}
}
