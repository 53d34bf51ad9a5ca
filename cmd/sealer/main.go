// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ChainSafe/sealer/config"
	"github.com/ChainSafe/sealer/dot"
	"github.com/ChainSafe/sealer/internal/log"
	"github.com/urfave/cli"
)

var logger log.LeveledLogger = log.NewFromGlobal(log.AddContext("pkg", "cmd"))

var errNoPath = errors.New("no output path given")

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Errorf("failed to run sealer: %s", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "sealer"
	app.Usage = "Development chain sealed by a pluggable consensus engine"
	app.Flags = globalFlags
	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "Produce blocks with the configured consensus engine",
			Action: runAction,
			Flags:  []cli.Flag{BlocksFlag, IntervalFlag},
		},
		{
			Name:      "export-config",
			Usage:     "Write the resolved configuration to a TOML file",
			ArgsUsage: "<path>",
			Action:    exportConfigAction,
		},
		{
			Name:   "check-config",
			Usage:  "Validate the configuration and exit",
			Action: checkConfigAction,
		},
	}
	return app
}

func runAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err = cfg.ApplyLogLevels(); err != nil {
		return err
	}

	node, err := dot.NewNode(cfg, dot.Options{
		Limit:    ctx.Uint64(BlocksFlag.Name),
		Interval: ctx.Duration(IntervalFlag.Name),
	})
	if err != nil {
		return fmt.Errorf("cannot create node: %w", err)
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return node.Start(signalCtx)
}

func exportConfigAction(ctx *cli.Context) error {
	path := ctx.Args().First()
	if path == "" {
		return errNoPath
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err = cfg.Export(path); err != nil {
		return err
	}
	logger.Infof("exported configuration to %s", path)
	return nil
}

func checkConfigAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	logger.Infof("configuration is valid, %s engine", cfg.Engine.Kind)
	return nil
}

// loadConfig reads the configuration file, if any, over the defaults and
// applies the global flags on top.
func loadConfig(ctx *cli.Context) (cfg *config.Config, err error) {
	cfg = config.Default()
	if path := ctx.GlobalString(ConfigFlag.Name); path != "" {
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	overrides := []struct {
		flag   string
		target *string
	}{
		{flag: LogFlag.Name, target: &cfg.Global.LogLvl},
		{flag: BasePathFlag.Name, target: &cfg.Global.BasePath},
		{flag: MetricsFlag.Name, target: &cfg.Global.Metrics},
	}
	for _, o := range overrides {
		if value := ctx.GlobalString(o.flag); value != "" {
			*o.target = value
		}
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
