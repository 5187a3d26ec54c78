package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"blinkrate/config"
	"blinkrate/core"
	"blinkrate/host/mcu"
	"blinkrate/host/periph"
	"blinkrate/host/runner"
	"blinkrate/host/serial"
)

const (
	readyTimeout  = 5 * time.Second
	pingInterval  = 2 * time.Second
	pingTimeout   = time.Second
	defaultDevice = "/dev/ttyACM0"
)

var (
	device string
	baud   int

	linkFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "device, D",
			Usage:       "serial device of the bridge board",
			Value:       defaultDevice,
			Destination: &device,
			EnvVar:      "BLINKRATE_DEVICE",
		},
		cli.IntFlag{
			Name:        "baud, b",
			Usage:       "baud rate (ignored for USB CDC)",
			Value:       115200,
			Destination: &baud,
		},
	}
)

func runLocal(ctx *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := periph.Init(); err != nil {
		return err
	}
	drv := periph.NewDriver(logger)
	defer drv.Close()

	return blink(drv, cfg)
}

func runLink(ctx *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m := mcu.NewMCU(logger)
	port := serial.DefaultConfig(device)
	port.Baud = baud
	if err := m.ConnectWithConfig(port); err != nil {
		return err
	}
	defer func() {
		stats := m.Stats()
		logger.Info("link closed", "resyncs", stats.Resyncs, "malformed", stats.Malformed, "lost", stats.Lost)
		m.Close()
	}()

	readyCtx, cancel := context.WithTimeout(context.Background(), readyTimeout)
	err = m.WaitReady(readyCtx)
	cancel()
	if err != nil {
		return err
	}
	if m.TickRate() != cfg.TickRate {
		logger.Warn("bridge tick rate differs from config", "bridge", m.TickRate(), "config", cfg.TickRate)
	}

	stop := make(chan struct{})
	defer close(stop)
	go keepalive(m, stop)

	return blink(m, cfg)
}

// keepalive pings the bridge so a dead link shows up in the log
func keepalive(m *mcu.MCU, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		clock, err := m.Ping(ctx)
		cancel()
		if err != nil {
			logger.Warn("bridge ping failed", "err", err)
			continue
		}
		logger.Debug("bridge ping", "clock", clock)
	}
}

// blink runs the blinker on drv until interrupted
func blink(drv core.GPIODriver, cfg *config.Config) error {
	b, err := runner.New(drv, cfg, logger)
	if err != nil {
		return fmt.Errorf("assemble blinker: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return b.Run(ctx)
}
