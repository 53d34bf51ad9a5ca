// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC)
}

func Test_Logger_log(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		options []Option
		logCall func(l *Logger)
		output  string
	}{
		"below level": {
			options: []Option{SetLevel(Warn)},
			logCall: func(l *Logger) { l.Info("hello") },
		},
		"at level": {
			options: []Option{SetLevel(Info)},
			logCall: func(l *Logger) { l.Infof("hello %d", 1) },
			output:  "2026-01-02T03:04:05Z INFO hello 1\n",
		},
		"with context": {
			options: []Option{SetLevel(Trace), AddContext("pkg", "bft"), AddContext("pkg", "votes")},
			logCall: func(l *Logger) { l.Trace("x") },
			output:  "2026-01-02T03:04:05Z TRCE x\tpkg=bft,votes\n",
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			buffer := bytes.NewBuffer(nil)
			options := append([]Option{SetWriter(buffer)}, testCase.options...)
			logger := New(options...)
			logger.now = fixedNow

			testCase.logCall(logger)

			assert.Equal(t, testCase.output, buffer.String())
		})
	}
}

func Test_Logger_childAndPatch(t *testing.T) {
	t.Parallel()

	buffer := bytes.NewBuffer(nil)
	parent := New(SetWriter(buffer), SetLevel(Error))
	parent.now = fixedNow

	child := parent.New(AddContext("pkg", "epoch"))
	child.Debug("hidden")
	assert.Empty(t, buffer.String())

	parent.Patch(SetLevel(Debug))
	child.Debug("shown")
	assert.Equal(t, "2026-01-02T03:04:05Z DBUG shown\tpkg=epoch\n", buffer.String())
}

func Test_Logger_PatchContext(t *testing.T) {
	t.Parallel()

	buffer := bytes.NewBuffer(nil)
	parent := New(SetWriter(buffer), SetLevel(Info))
	parent.now = fixedNow

	bft := parent.New(AddContext("pkg", "bft"))
	votes := parent.New(AddContext("pkg", "votes"))

	parent.PatchContext("pkg", "bft", SetLevel(Debug))
	bft.Debug("round")
	votes.Debug("hidden")
	parent.Debug("hidden")
	assert.Equal(t, "2026-01-02T03:04:05Z DBUG round\tpkg=bft\n", buffer.String())
}

func Test_ParseLevel(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		s          string
		level      Level
		errWrapped error
	}{
		"short":   {s: "dbug", level: Debug},
		"long":    {s: "critical", level: Critical},
		"info":    {s: "INFO", level: Info},
		"invalid": {s: "loud", errWrapped: ErrLevelNotRecognised},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			level, err := ParseLevel(testCase.s)
			require.ErrorIs(t, err, testCase.errWrapped)
			assert.Equal(t, testCase.level, level)
		})
	}
}
