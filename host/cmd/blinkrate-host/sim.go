package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli"

	"blinkrate/config"
	"blinkrate/core"
	"blinkrate/sim"
)

var (
	horizon  uint64
	overhead uint64

	simFlags = []cli.Flag{
		cli.Int64SliceFlag{
			Name:  "press, p",
			Usage: "tick at which the button is pressed (repeatable)",
		},
		cli.Int64SliceFlag{
			Name:  "release, r",
			Usage: "tick at which the button is released (repeatable)",
		},
		cli.Uint64Flag{
			Name:        "horizon, t",
			Usage:       "stop once the next deadline would pass this tick",
			Value:       10000,
			Destination: &horizon,
		},
		cli.Uint64Flag{
			Name:        "overhead, o",
			Usage:       "ticks of latency added to every deadline wake",
			Destination: &overhead,
		},
	}
)

func runSim(ctx *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	h := sim.NewHarness(0, cfg.QueueCapacity)
	h.Overhead = core.Ticks(overhead)
	for _, at := range ctx.Int64Slice("press") {
		if at < 0 {
			return fmt.Errorf("press at %d: negative tick", at)
		}
		h.Press(core.Timestamp(at))
	}
	for _, at := range ctx.Int64Slice("release") {
		if at < 0 {
			return fmt.Errorf("release at %d: negative tick", at)
		}
		h.Release(core.Timestamp(at))
	}

	return simulate(ctx.App.Writer, h, cfg, core.Timestamp(horizon))
}

// simulate runs the scheduler to horizon and writes one line per rate
// change and toggle, in time order
func simulate(w io.Writer, h *sim.Harness, cfg *config.Config, horizon core.Timestamp) error {
	var rec sim.Recorder
	out := &sim.Output{}
	opts := append([]core.SchedulerOption{
		core.WithPeriods(core.Ticks(cfg.SlowPeriod), core.Ticks(cfg.FastPeriod)),
	}, rec.Options()...)
	s := core.NewScheduler(h.Clock, out, h, opts...)

	if err := h.Run(context.Background(), s, horizon); err != nil {
		return err
	}

	ri := 0
	for _, tg := range rec.Toggles {
		for ri < len(rec.Rates) && rec.Rates[ri].At <= tg.Scheduled {
			printRate(w, rec.Rates[ri])
			ri++
		}
		state := "off"
		if tg.On {
			state = "on"
		}
		line := fmt.Sprintf("%8d  toggle  %-3s", tg.Scheduled, state)
		if tg.Actual != tg.Scheduled {
			line += fmt.Sprintf("  late=%d", tg.Actual.Sub(tg.Scheduled))
		}
		if tg.CatchUp {
			line += "  catch-up"
		}
		fmt.Fprintln(w, line)
	}
	for ; ri < len(rec.Rates); ri++ {
		printRate(w, rec.Rates[ri])
	}
	fmt.Fprintf(w, "%d toggles, %d rate changes, %d dropped\n", len(rec.Toggles), len(rec.Rates), h.Queue.Dropped())
	return nil
}

func printRate(w io.Writer, r sim.Rate) {
	what := "release"
	if r.Pressed {
		what = "press"
	}
	fmt.Fprintf(w, "%8d  %-7s period=%d\n", r.At, what, r.Period)
}
