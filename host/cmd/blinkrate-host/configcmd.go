package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli"

	"blinkrate/config"
)

func configInit(ctx *cli.Context) error {
	path := ctx.Args().First()
	if path == "" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	if err := config.WriteFile(appFs, path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "wrote %s\n", path)
	return nil
}

func configShow(ctx *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, string(data))
	return nil
}
