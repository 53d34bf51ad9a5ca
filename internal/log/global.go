// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

var globalLogger = New()

// NewFromGlobal creates a child logger from the global logger.
func NewFromGlobal(options ...Option) *Logger {
	return globalLogger.New(options...)
}

// Patch patches the global package logger and all its children.
func Patch(options ...Option) {
	globalLogger.Patch(options...)
}

// PatchLevel patches the global package logger level.
func PatchLevel(level Level) {
	globalLogger.Patch(SetLevel(level))
}

// PatchPackage sets the level of the loggers created for pkg.
func PatchPackage(pkg string, level Level) {
	globalLogger.PatchContext("pkg", pkg, SetLevel(level))
}
