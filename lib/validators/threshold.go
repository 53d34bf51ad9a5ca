// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package validators

import (
	"fmt"

	"github.com/ChainSafe/sealer/lib/consensus"
	"github.com/holiman/uint256"
)

// Threshold is the fraction of the total weight a quorum must strictly exceed.
type Threshold struct {
	Numerator   uint64 `toml:"numerator"`
	Denominator uint64 `toml:"denominator"`
}

// DefaultThreshold is the byzantine safety threshold: a quorum holds more
// than two thirds of the total weight.
var DefaultThreshold = Threshold{Numerator: 2, Denominator: 3}

// NewThreshold returns a validated threshold.
func NewThreshold(numerator, denominator uint64) (Threshold, error) {
	t := Threshold{Numerator: numerator, Denominator: denominator}
	if err := t.Validate(); err != nil {
		return Threshold{}, err
	}
	return t, nil
}

// Validate rejects fractions under one half or not below one.
func (t Threshold) Validate() error {
	switch {
	case t.Denominator == 0:
		return fmt.Errorf("%w: threshold denominator is zero", consensus.ErrConfiguration)
	case t.Numerator >= t.Denominator:
		return fmt.Errorf("%w: threshold %s is not below one", consensus.ErrConfiguration, t)
	case uint256.NewInt(t.Numerator).Lsh(uint256.NewInt(t.Numerator), 1).Lt(uint256.NewInt(t.Denominator)):
		return fmt.Errorf("%w: threshold %s is below one half", consensus.ErrConfiguration, t)
	}
	return nil
}

// Reached returns true iff weight / total > Numerator / Denominator.
func (t Threshold) Reached(weight, total uint64) bool {
	lhs := new(uint256.Int).Mul(uint256.NewInt(weight), uint256.NewInt(t.Denominator))
	rhs := new(uint256.Int).Mul(uint256.NewInt(total), uint256.NewInt(t.Numerator))
	return lhs.Gt(rhs)
}

// Required returns the smallest weight reaching the threshold.
func (t Threshold) Required(total uint64) uint64 {
	// floor(total * num / den) + 1
	q := new(uint256.Int).Mul(uint256.NewInt(total), uint256.NewInt(t.Numerator))
	q.Div(q, uint256.NewInt(t.Denominator))
	return q.Uint64() + 1
}

func (t Threshold) String() string {
	return fmt.Sprintf("%d/%d", t.Numerator, t.Denominator)
}
