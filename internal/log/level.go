// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color" //nolint:misspell
)

// Level is the severity of a log line.
type Level uint8

const (
	// Trace logs every round step and message of consensus.
	Trace Level = iota
	// Debug logs decisions such as locks, view changes and pruning.
	Debug
	// Info logs committed blocks and lifecycle events.
	Info
	// Warn logs rejected messages and equivocations.
	Warn
	// Error logs failures a node recovers from.
	Error
	// Critical logs failures a node does not recover from.
	Critical
)

type levelNames struct {
	short  string
	long   string
	colour color.Attribute
}

var levels = [...]levelNames{
	Trace:    {short: "TRCE", long: "TRACE", colour: color.FgHiCyan},
	Debug:    {short: "DBUG", long: "DEBUG", colour: color.FgHiBlue},
	Info:     {short: "INFO", long: "INFO", colour: color.FgCyan},
	Warn:     {short: "WARN", long: "WARNING", colour: color.FgYellow},
	Error:    {short: "EROR", long: "ERROR", colour: color.FgHiRed},
	Critical: {short: "CRIT", long: "CRITICAL", colour: color.FgRed},
}

// String returns the four letter tag of the level.
func (level Level) String() string {
	if int(level) >= len(levels) {
		return "???"
	}
	return levels[level].short
}

// ColouredString returns the tag of the level coloured for terminals.
func (level Level) ColouredString() string {
	if int(level) >= len(levels) {
		return color.New(color.Reset).Sprint(level.String())
	}
	return color.New(levels[level].colour).Sprint(level.String())
}

// ErrLevelNotRecognised is returned by ParseLevel for unknown names.
var ErrLevelNotRecognised = errors.New("level is not recognised")

// ParseLevel parses the short (trce, dbug, eror, crit) or the long
// (trace, debug, error, critical) name of a level, ignoring case.
func ParseLevel(s string) (Level, error) {
	upper := strings.ToUpper(s)
	for level, names := range levels {
		if upper == names.short || upper == names.long {
			return Level(level), nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrLevelNotRecognised, s)
}
