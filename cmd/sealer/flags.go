// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"time"

	"github.com/urfave/cli"
)

// Global flags
var (
	// ConfigFlag is the TOML configuration file.
	ConfigFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	// LogFlag overrides the global log level.
	LogFlag = cli.StringFlag{
		Name:  "log",
		Usage: "Global log level. Supports levels crit (silent), eror, warn, info, dbug and trce (trace)",
	}
	// BasePathFlag overrides the data directory.
	BasePathFlag = cli.StringFlag{
		Name:  "basepath",
		Usage: "Data directory of the node",
	}
	// MetricsFlag overrides the metrics server address.
	MetricsFlag = cli.StringFlag{
		Name:  "metrics",
		Usage: "Serve prometheus metrics on this address, eg. --metrics=127.0.0.1:9876",
	}
)

// Run flags
var (
	// BlocksFlag stops the chain after that many blocks.
	BlocksFlag = cli.Uint64Flag{
		Name:  "blocks",
		Usage: "Stop after producing that many blocks, 0 produces forever",
	}
	// IntervalFlag is the pause between two blocks.
	IntervalFlag = cli.DurationFlag{
		Name:  "interval",
		Usage: "Pause between two blocks",
		Value: time.Second,
	}
)

var globalFlags = []cli.Flag{
	ConfigFlag,
	LogFlag,
	BasePathFlag,
	MetricsFlag,
}
