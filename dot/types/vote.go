// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"fmt"

	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// Step is a voting step of a BFT round.
type Step uint8

const (
	// Prevote is the first voting step of a view.
	Prevote Step = 1
	// Precommit is the second voting step of a view.
	Precommit Step = 2
)

// Valid returns true for Prevote and Precommit.
func (s Step) Valid() bool {
	return s == Prevote || s == Precommit
}

func (s Step) String() string {
	switch s {
	case Prevote:
		return "prevote"
	case Precommit:
		return "precommit"
	default:
		return fmt.Sprintf("step(%d)", uint8(s))
	}
}

// NilHash is the block hash of a vote for no block.
var NilHash = common.EmptyHash

// VoteDigest returns the digest a voter signs for (height, view, step, blockHash).
func VoteDigest(height, view uint64, step Step, blockHash common.Hash) common.Hash {
	enc, err := rlp.EncodeToBytes([]interface{}{height, view, uint8(step), blockHash})
	if err != nil {
		panic(err)
	}
	return common.MustBlake2bHash(enc)
}

// VoteKey identifies the round step a vote belongs to.
type VoteKey struct {
	Height uint64
	View   uint64
	Step   Step
}

func (k VoteKey) String() string {
	return fmt.Sprintf("%d/%d/%s", k.Height, k.View, k.Step)
}

// Vote is a signed prevote or precommit.
type Vote struct {
	Height    uint64
	View      uint64
	Step      Step
	BlockHash common.Hash
	Voter     common.Address
	Signature []byte
}

// Key returns the round step of the vote.
func (v *Vote) Key() VoteKey {
	return VoteKey{Height: v.Height, View: v.View, Step: v.Step}
}

// IsNil returns true if the vote is for no block.
func (v *Vote) IsNil() bool {
	return v.BlockHash == NilHash
}

// Digest returns the digest the voter signed.
func (v *Vote) Digest() common.Hash {
	return VoteDigest(v.Height, v.View, v.Step, v.BlockHash)
}

// Encode returns the RLP encoding of the vote.
func (v *Vote) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(v)
}

// DecodeVote decodes an RLP encoded vote.
func DecodeVote(in []byte) (*Vote, error) {
	v := new(Vote)
	if err := rlp.DecodeBytes(in, v); err != nil {
		return nil, fmt.Errorf("decoding vote: %w", err)
	}
	return v, nil
}

// Equal returns true if both votes carry the same content and signature.
func (v *Vote) Equal(other *Vote) bool {
	return v.Key() == other.Key() && v.BlockHash == other.BlockHash &&
		v.Voter == other.Voter && string(v.Signature) == string(other.Signature)
}

func (v *Vote) String() string {
	block := v.BlockHash.Short()
	if v.IsNil() {
		block = "nil"
	}
	return fmt.Sprintf("%s voter=%s block=%s", v.Key(), v.Voter, block)
}

// CommitSig is one precommit signature embedded in a seal or a transition proof.
type CommitSig struct {
	Voter     common.Address
	Signature []byte
}

// CommitSigs extracts the embedded form of a set of precommits.
func CommitSigs(votes []*Vote) []CommitSig {
	sigs := make([]CommitSig, len(votes))
	for i, v := range votes {
		sigs[i] = CommitSig{Voter: v.Voter, Signature: append([]byte(nil), v.Signature...)}
	}
	return sigs
}

// EncodeCommitSigs returns the RLP encoding of the signatures.
func EncodeCommitSigs(sigs []CommitSig) ([]byte, error) {
	return rlp.EncodeToBytes(sigs)
}

// DecodeCommitSigs decodes RLP encoded commit signatures.
func DecodeCommitSigs(in []byte) ([]CommitSig, error) {
	var sigs []CommitSig
	if err := rlp.DecodeBytes(in, &sigs); err != nil {
		return nil, fmt.Errorf("decoding commit signatures: %w", err)
	}
	return sigs, nil
}
