// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package bft

import (
	"fmt"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/lib/consensus"
	"github.com/ChainSafe/sealer/lib/votes"
	"github.com/holiman/uint256"
)

// A BFT seal holds the commit view, the view the block was first proposed
// in, the RLP encoded precommit signatures and, on the first block of an
// epoch, the RLP encoded transition proof.
type commitSeal struct {
	view   uint64
	origin uint64
	sigs   []types.CommitSig
	proof  *types.TransitionProof
}

func decodeSeal(fields types.Seal) (*commitSeal, error) {
	if len(fields) != 3 && len(fields) != 4 {
		return nil, fmt.Errorf("%w: expected 3 or 4 fields, got %d", consensus.ErrInvalidSeal, len(fields))
	}

	var (
		sl  commitSeal
		err error
	)
	if sl.view, err = consensus.DecodeView(fields[0]); err != nil {
		return nil, err
	}
	if sl.origin, err = consensus.DecodeView(fields[1]); err != nil {
		return nil, err
	}
	if sl.sigs, err = types.DecodeCommitSigs(fields[2]); err != nil {
		return nil, fmt.Errorf("%w: %s", consensus.ErrInvalidSeal, err)
	}
	if len(fields) == 4 {
		if sl.proof, err = types.DecodeTransitionProof(fields[3]); err != nil {
			return nil, fmt.Errorf("%w: %s", consensus.ErrInvalidSeal, err)
		}
	}
	return &sl, nil
}

// ExtractProof returns the commit carried by the seal of a finalized
// header, as the proof of a transition taking effect after it.
func ExtractProof(finalized *types.Header) (*types.TransitionProof, error) {
	sl, err := decodeSeal(finalized.Seal)
	if err != nil {
		return nil, err
	}
	return &types.TransitionProof{
		Height:     finalized.Number,
		View:       sl.view,
		BlockHash:  finalized.Hash(),
		Signatures: sl.sigs,
	}, nil
}

// Kind returns consensus.BFT.
func (*Service) Kind() consensus.Kind {
	return consensus.BFT
}

// VerifySeal checks the seal holds a precommit quorum of the validators
// effective at the header height.
func (s *Service) VerifySeal(header, _ *types.Header) error {
	sealedHash := header.SealedHash()
	if _, ok := s.verified.Get(sealedHash); ok {
		return nil
	}

	sl, err := decodeSeal(header.Seal)
	if err != nil {
		return err
	}

	snapshot, err := s.snapshots.EffectiveSetAt(header.Number)
	if err != nil {
		return fmt.Errorf("cannot get validators at height %d: %w", header.Number, err)
	}

	err = votes.VerifyCommit(snapshot, s.threshold, header.Number, sl.view, header.Hash(), sl.sigs)
	if err != nil {
		return fmt.Errorf("%w: %w", consensus.ErrInvalidSeal, err)
	}

	s.verified.Add(sealedHash, struct{}{})
	return nil
}

// VerifyBlockExternal checks header extends parent, that its author is
// the rotation proposer of the view the seal says it was first proposed
// in, and that the first block of an epoch carries a valid transition
// proof for its parent.
func (s *Service) VerifyBlockExternal(header, parent *types.Header) error {
	if err := consensus.VerifyParent(header, parent); err != nil {
		return err
	}

	sl, err := decodeSeal(header.Seal)
	if err != nil {
		return err
	}
	if sl.origin > sl.view {
		return fmt.Errorf("%w: block %d first proposed at view %d, committed at view %d",
			consensus.ErrInvalidSeal, header.Number, sl.origin, sl.view)
	}

	snapshot, err := s.set.Snapshot(header.ParentHash)
	if err != nil {
		return fmt.Errorf("cannot get validators after %s: %w", header.ParentHash.Short(), err)
	}
	if proposer := consensus.Proposer(snapshot, header.Number, sl.origin); header.Author != proposer {
		return fmt.Errorf("%w: block %d authored by %s, proposer of view %d is %s",
			consensus.ErrWrongProposer, header.Number, header.Author, sl.origin, proposer)
	}

	if s.epochs == nil || header.Number == 0 || !s.epochs.IsTransitionHeight(header.Number) {
		return nil
	}

	proof := sl.proof
	if proof == nil {
		return fmt.Errorf("%w: %w at block %d", consensus.ErrEpochProofInvalid, ErrMissingTransitionProof, header.Number)
	}
	if proof.Height != header.Number-1 || proof.BlockHash != header.ParentHash {
		return fmt.Errorf("%w: proof for block %d %s, parent is %s",
			consensus.ErrEpochProofInvalid, proof.Height, proof.BlockHash.Short(), header.ParentHash.Short())
	}

	outgoing, err := s.snapshots.EffectiveSetAt(header.Number - 1)
	if err != nil {
		return fmt.Errorf("cannot get validators at height %d: %w", header.Number-1, err)
	}
	return votes.VerifyTransitionProof(outgoing, s.threshold, proof)
}

// OnEpochBegin drops the seal verification cache, which was filled
// against the outgoing validators.
func (s *Service) OnEpochBegin(height uint64) error {
	s.verified.Purge()
	logger.Infof("validator set changes at height %d", height)
	return nil
}

// IsEpochEnd returns true if the validator set changes after header.
func (s *Service) IsEpochEnd(header *types.Header) bool {
	return s.epochs != nil && s.epochs.IsEpochEnd(header)
}

// CalculateScore returns zero.
func (*Service) CalculateScore(*types.Header) *uint256.Int {
	return uint256.NewInt(0)
}
