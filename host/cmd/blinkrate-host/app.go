package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"blinkrate/config"
	"blinkrate/core"
)

const description = `Blinks an LED slowly while a button is released and quickly while it
is held. The blinker runs against local GPIO (run), a bridge board over a
serial link (link), or a virtual clock (sim).`

var (
	configPath string
	substrate  string
	debug      bool

	// appFs backs config reads and writes; tests swap in a memory fs
	appFs afero.Fs = afero.NewOsFs()

	logger *slog.Logger

	globalFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "path to a JSON config file (defaults are used if not set)",
			Destination: &configPath,
			EnvVar:      "BLINKRATE_CONFIG",
		},
		cli.StringFlag{
			Name:        "substrate, s",
			Usage:       "override the concurrency substrate (cooperative or interrupt)",
			Destination: &substrate,
		},
		cli.BoolFlag{
			Name:        "debug, d",
			Usage:       "enable debug logging and dump the timing ring on exit",
			Destination: &debug,
			EnvVar:      "BLINKRATE_DEBUG",
		},
	}
)

// Execute parses args and runs the selected command
func Execute(args []string) error {
	return newApp(os.Stdout, os.Stderr).Run(args)
}

func newApp(stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "blinkrate"
	app.HelpName = "blinkrate"
	app.Usage = "a responsive-button LED blinker"
	app.UsageText = "blinkrate [global options] <command> [arguments...]"
	app.Description = description
	app.Version = version
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = globalFlags
	app.Before = func(ctx *cli.Context) error {
		setupLogging(stderr)
		return nil
	}
	app.After = func(ctx *cli.Context) error {
		if debug {
			core.DumpTimingRing()
		}
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "blink using this machine's GPIO",
			Action: runLocal,
		},
		{
			Name:   "link",
			Usage:  "blink using a bridge board's pins over a serial link",
			Action: runLink,
			Flags:  linkFlags,
		},
		{
			Name:   "sim",
			Usage:  "run the scheduler against a virtual clock and print the trace",
			Action: runSim,
			Flags:  simFlags,
		},
		{
			Name:  "config",
			Usage: "inspect or create a config file",
			Subcommands: []cli.Command{
				{
					Name:      "init",
					Usage:     "write the default config",
					ArgsUsage: "<path>",
					Action:    configInit,
				},
				{
					Name:   "show",
					Usage:  "print the effective config",
					Action: configShow,
				},
			},
		},
	}
	return app
}

func setupLogging(w io.Writer) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))

	core.SetDebugEnabled(debug)
	if debug {
		core.SetDebugWriter(func(s string) { logger.Debug(s) })
		core.InitAsyncDebug()
	}
}

// loadConfig reads --config if given and applies command-line overrides
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = config.LoadFile(appFs, configPath)
		if err != nil {
			return nil, err
		}
	}
	if substrate != "" {
		cfg.Substrate = substrate
	}
	if debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
