// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"fmt"

	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// Equivocation is the proof that a validator signed two different block
// hashes at the same height, view and step.
type Equivocation struct {
	First  Vote
	Second Vote
}

// NewEquivocation returns the evidence made of two conflicting votes.
func NewEquivocation(first, second *Vote) *Equivocation {
	return &Equivocation{First: *first, Second: *second}
}

// Offender returns the address of the equivocating validator.
func (e *Equivocation) Offender() common.Address {
	return e.First.Voter
}

// Key returns the round step at which the equivocation happened.
func (e *Equivocation) Key() VoteKey {
	return e.First.Key()
}

// Encode returns the RLP encoding of the evidence.
func (e *Equivocation) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(e)
}

// DecodeEquivocation decodes RLP encoded evidence.
func DecodeEquivocation(in []byte) (*Equivocation, error) {
	e := new(Equivocation)
	if err := rlp.DecodeBytes(in, e); err != nil {
		return nil, fmt.Errorf("decoding equivocation: %w", err)
	}
	return e, nil
}

func (e *Equivocation) String() string {
	return fmt.Sprintf("equivocation by %s at %s: %s vs %s",
		e.Offender(), e.Key(), e.First.BlockHash.Short(), e.Second.BlockHash.Short())
}
