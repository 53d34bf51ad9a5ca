// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"io"
	"os"
)

type contextKeyValues struct {
	key    string
	values []string
}

type settings struct {
	writer  io.Writer
	level   *Level
	caller  *bool
	colour  *bool
	context []contextKeyValues
}

func newSettings(options []Option) (s settings) {
	for _, option := range options {
		option(&s)
	}
	return s
}

// mergeWith sets values from other when they are unset in s.
func (s *settings) mergeWith(other settings) {
	if s.writer == nil {
		s.writer = other.writer
	}
	if s.level == nil && other.level != nil {
		value := *other.level
		s.level = &value
	}
	if s.caller == nil && other.caller != nil {
		value := *other.caller
		s.caller = &value
	}
	if s.colour == nil && other.colour != nil {
		value := *other.colour
		s.colour = &value
	}

	merged := make([]contextKeyValues, 0, len(other.context)+len(s.context))
	merged = append(merged, other.context...)
	for _, kv := range s.context {
		merged = addContext(merged, kv.key, kv.values...)
	}
	s.context = merged
}

func (s *settings) hasContext(key, value string) bool {
	for _, kv := range s.context {
		if kv.key != key {
			continue
		}
		for _, v := range kv.values {
			if v == value {
				return true
			}
		}
	}
	return false
}

func (s *settings) setDefaults() {
	if s.writer == nil {
		s.writer = os.Stdout
	}
	if s.level == nil {
		level := Info
		s.level = &level
	}
	if s.caller == nil {
		caller := false
		s.caller = &caller
	}
	if s.colour == nil {
		colour := false
		s.colour = &colour
	}
}

// Option is the type to specify settings modifier
// for the logger operation.
type Option func(s *settings)

// SetLevel sets the level for the logger.
// The level defaults to info.
func SetLevel(level Level) Option {
	return func(s *settings) {
		s.level = &level
	}
}

// SetCaller enables or disables logging the caller file and line.
// The default is disabled.
func SetCaller(enabled bool) Option {
	return func(s *settings) {
		s.caller = &enabled
	}
}

// SetColour enables or disables coloured level tags.
// The default is disabled.
func SetColour(enabled bool) Option {
	return func(s *settings) {
		s.colour = &enabled
	}
}

// SetWriter set the writer for the logger.
// The writer defaults to os.Stdout.
func SetWriter(writer io.Writer) Option {
	return func(s *settings) {
		s.writer = writer
	}
}

// AddContext adds the context for the logger as a key values pair.
// It adds them in order. If a key already exists, the value is added to the
// existing values.
func AddContext(key, value string) Option {
	return func(s *settings) {
		s.context = addContext(s.context, key, value)
	}
}

func addContext(context []contextKeyValues, key string, values ...string) []contextKeyValues {
	for i := range context {
		if context[i].key == key {
			context[i].values = append(context[i].values, values...)
			return context
		}
	}
	return append(context, contextKeyValues{key: key, values: append([]string(nil), values...)})
}
