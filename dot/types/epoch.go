// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"fmt"

	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// TransitionProof is the precommit quorum of the outgoing validator set
// over the finalized block that signalled a validator set change.
type TransitionProof struct {
	Height     uint64
	View       uint64
	BlockHash  common.Hash
	Signatures []CommitSig
}

// IsEmpty returns true for the proof carried by the genesis epoch.
func (p *TransitionProof) IsEmpty() bool {
	return p.BlockHash.IsEmpty() && len(p.Signatures) == 0
}

// Equal compares two proofs field by field.
func (p *TransitionProof) Equal(other *TransitionProof) bool {
	if p.Height != other.Height || p.View != other.View || p.BlockHash != other.BlockHash ||
		len(p.Signatures) != len(other.Signatures) {
		return false
	}
	for i := range p.Signatures {
		if p.Signatures[i].Voter != other.Signatures[i].Voter ||
			string(p.Signatures[i].Signature) != string(other.Signatures[i].Signature) {
			return false
		}
	}
	return true
}

// Encode returns the RLP encoding of the proof.
func (p *TransitionProof) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(p)
}

// DecodeTransitionProof decodes an RLP encoded transition proof.
func DecodeTransitionProof(in []byte) (*TransitionProof, error) {
	p := new(TransitionProof)
	if err := rlp.DecodeBytes(in, p); err != nil {
		return nil, fmt.Errorf("decoding transition proof: %w", err)
	}
	return p, nil
}

// EpochRecord is one entry of the append only validator set history.
type EpochRecord struct {
	Number      uint64
	FirstHeight uint64
	Validators  ValidatorSnapshot
	Proof       TransitionProof
}

// Encode returns the RLP encoding of the record.
func (r *EpochRecord) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(r)
}

// DecodeEpochRecord decodes an RLP encoded epoch record.
func DecodeEpochRecord(in []byte) (*EpochRecord, error) {
	r := new(EpochRecord)
	if err := rlp.DecodeBytes(in, r); err != nil {
		return nil, fmt.Errorf("decoding epoch record: %w", err)
	}
	return r, nil
}

func (r *EpochRecord) String() string {
	return fmt.Sprintf("epoch=%d first=%d validators=%d", r.Number, r.FirstHeight, r.Validators.Len())
}
