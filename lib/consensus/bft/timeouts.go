// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package bft

import (
	"fmt"
	"math"
	"time"

	"github.com/ChainSafe/sealer/lib/consensus"
)

// Growth is how step timeouts grow with the view number.
type Growth uint8

const (
	// Linear timeouts are base + view * Delta, capped at Max.
	Linear Growth = iota
	// Exponential timeouts are base * Factor^view, capped at Max.
	Exponential
)

func (g Growth) String() string {
	switch g {
	case Linear:
		return "linear"
	case Exponential:
		return "exponential"
	default:
		return fmt.Sprintf("growth(%d)", uint8(g))
	}
}

// ParseGrowth parses "linear" or "exponential". Names are case sensitive,
// as in the configuration file.
func ParseGrowth(s string) (Growth, error) {
	switch s {
	case "linear", "":
		return Linear, nil
	case "exponential":
		return Exponential, nil
	default:
		return 0, fmt.Errorf("%w: unknown timeout growth %q", consensus.ErrConfiguration, s)
	}
}

// Timeouts holds the step deadlines of the round machine.
type Timeouts struct {
	Propose   time.Duration
	Prevote   time.Duration
	Precommit time.Duration

	Growth Growth
	// Delta is added per view with Linear growth.
	Delta time.Duration
	// Factor multiplies the timeout per view with Exponential growth.
	Factor float64
	// Max caps every timeout. Zero means no cap with Linear growth.
	Max time.Duration
}

// DefaultTimeouts returns linear timeouts suited to a small network.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Propose:   3 * time.Second,
		Prevote:   time.Second,
		Precommit: time.Second,
		Growth:    Linear,
		Delta:     500 * time.Millisecond,
		Factor:    2,
		Max:       time.Minute,
	}
}

// Validate returns an error wrapping ErrConfiguration for unusable timeouts.
func (t Timeouts) Validate() error {
	if t.Propose <= 0 || t.Prevote <= 0 || t.Precommit <= 0 {
		return fmt.Errorf("%w: step timeouts must be positive", consensus.ErrConfiguration)
	}
	if t.Delta < 0 || t.Max < 0 {
		return fmt.Errorf("%w: negative timeout growth", consensus.ErrConfiguration)
	}

	switch t.Growth {
	case Linear:
	case Exponential:
		if t.Factor <= 1 {
			return fmt.Errorf("%w: exponential factor %v must be above 1", consensus.ErrConfiguration, t.Factor)
		}
		if t.Max == 0 {
			return fmt.Errorf("%w: exponential timeouts need a maximum", consensus.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: %s", consensus.ErrConfiguration, t.Growth)
	}
	return nil
}

func (t Timeouts) base(step Step) time.Duration {
	switch step {
	case StepPropose:
		return t.Propose
	case StepPrevote:
		return t.Prevote
	default:
		return t.Precommit
	}
}

// Duration returns the timeout of step at view.
func (t Timeouts) Duration(step Step, view uint64) time.Duration {
	base := t.base(step)

	switch t.Growth {
	case Exponential:
		d := float64(base) * math.Pow(t.Factor, float64(view))
		if d >= float64(t.Max) {
			return t.Max
		}
		return time.Duration(d)
	default:
		if t.Max > 0 && base >= t.Max {
			return t.Max
		}
		if t.Delta == 0 {
			return base
		}

		limit := time.Duration(math.MaxInt64)
		if t.Max > 0 {
			limit = t.Max
		}
		if view > uint64((limit-base)/t.Delta) {
			return limit
		}
		return base + time.Duration(view)*t.Delta
	}
}
