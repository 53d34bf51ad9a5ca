// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ChainSafe/sealer/lib/common"
)

var (
	// ErrEmptyValidatorSet is returned when a snapshot has no validator.
	ErrEmptyValidatorSet = errors.New("validator set is empty")
	// ErrDuplicateValidator is returned when an address appears twice in a snapshot.
	ErrDuplicateValidator = errors.New("duplicate validator")
	// ErrWeightOverflow is returned when the total weight does not fit in 64 bits.
	ErrWeightOverflow = errors.New("total validator weight overflows")
)

// Validator is a voting identity and its weight.
type Validator struct {
	Address common.Address `toml:"address"`
	Weight  uint64         `toml:"weight,omitempty"`
}

// ValidatorSnapshot is an ordered, immutable list of validators.
// The order defines proposer rotation.
type ValidatorSnapshot struct {
	Validators []Validator
}

// NewValidatorSnapshot copies vals into a snapshot, normalising a zero
// weight to 1, and validates it.
func NewValidatorSnapshot(vals []Validator) (*ValidatorSnapshot, error) {
	s := &ValidatorSnapshot{Validators: make([]Validator, len(vals))}
	for i, v := range vals {
		if v.Weight == 0 {
			v.Weight = 1
		}
		s.Validators[i] = v
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewValidatorSnapshotFromAddresses returns a snapshot of equally weighted validators.
func NewValidatorSnapshotFromAddresses(addrs []common.Address) (*ValidatorSnapshot, error) {
	vals := make([]Validator, len(addrs))
	for i, a := range addrs {
		vals[i] = Validator{Address: a, Weight: 1}
	}
	return NewValidatorSnapshot(vals)
}

// Validate checks the snapshot is non empty, duplicate free and that its
// total weight does not overflow.
func (s *ValidatorSnapshot) Validate() error {
	if len(s.Validators) == 0 {
		return ErrEmptyValidatorSet
	}

	seen := make(map[common.Address]struct{}, len(s.Validators))
	var total uint64
	for _, v := range s.Validators {
		if _, has := seen[v.Address]; has {
			return fmt.Errorf("%w: %s", ErrDuplicateValidator, v.Address)
		}
		seen[v.Address] = struct{}{}

		if v.Weight == 0 {
			return fmt.Errorf("validator %s has zero weight", v.Address)
		}
		if total > math.MaxUint64-v.Weight {
			return ErrWeightOverflow
		}
		total += v.Weight
	}
	return nil
}

// Len returns the number of validators.
func (s *ValidatorSnapshot) Len() int {
	return len(s.Validators)
}

// At returns the validator at index i.
func (s *ValidatorSnapshot) At(i int) Validator {
	return s.Validators[i]
}

// IndexOf returns the position of addr in the snapshot.
func (s *ValidatorSnapshot) IndexOf(addr common.Address) (int, bool) {
	for i, v := range s.Validators {
		if v.Address == addr {
			return i, true
		}
	}
	return -1, false
}

// Contains returns true if addr is a validator of the snapshot.
func (s *ValidatorSnapshot) Contains(addr common.Address) bool {
	_, has := s.IndexOf(addr)
	return has
}

// WeightOf returns the weight of addr, or 0 if it is not a validator.
func (s *ValidatorSnapshot) WeightOf(addr common.Address) uint64 {
	i, has := s.IndexOf(addr)
	if !has {
		return 0
	}
	return s.Validators[i].Weight
}

// TotalWeight returns the sum of all weights.
func (s *ValidatorSnapshot) TotalWeight() (total uint64) {
	for _, v := range s.Validators {
		total += v.Weight
	}
	return total
}

// Addresses returns the validator addresses in order.
func (s *ValidatorSnapshot) Addresses() []common.Address {
	addrs := make([]common.Address, len(s.Validators))
	for i, v := range s.Validators {
		addrs[i] = v.Address
	}
	return addrs
}

// Equal returns true if both snapshots list the same validators in the same order.
func (s *ValidatorSnapshot) Equal(other *ValidatorSnapshot) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i := range s.Validators {
		if s.Validators[i] != other.Validators[i] {
			return false
		}
	}
	return true
}

func (s *ValidatorSnapshot) String() string {
	parts := make([]string, len(s.Validators))
	for i, v := range s.Validators {
		parts[i] = fmt.Sprintf("%s:%d", v.Address, v.Weight)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
