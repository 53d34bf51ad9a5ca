// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"fmt"
	"math"

	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// NoView marks a proposal that carries no proof of lock.
const NoView uint64 = math.MaxUint64

// Proposal is the block proposed for a (height, view) by the rotation proposer.
type Proposal struct {
	Height uint64
	View   uint64
	// ValidView is the view at which the proposer observed a prevote quorum
	// for Header, or NoView.
	ValidView uint64
	// OriginView is the view Header was first proposed in, the view whose
	// rotation proposer authored it. It is View without a proof of lock.
	OriginView uint64
	Header     Header
	Signature  []byte
}

// ProposalDigest returns the digest a proposer signs.
func ProposalDigest(height, view, validView, originView uint64, blockHash common.Hash) common.Hash {
	enc, err := rlp.EncodeToBytes([]interface{}{height, view, validView, originView, blockHash})
	if err != nil {
		panic(err)
	}
	return common.MustBlake2bHash(enc)
}

// Digest returns the digest signed by the proposer.
func (p *Proposal) Digest() common.Hash {
	return ProposalDigest(p.Height, p.View, p.ValidView, p.OriginView, p.Header.Hash())
}

// BlockHash returns the hash that votes for this proposal carry.
func (p *Proposal) BlockHash() common.Hash {
	return p.Header.Hash()
}

// HasProofOfLock returns true if the proposal re-proposes a block that
// reached a prevote quorum at an earlier view.
func (p *Proposal) HasProofOfLock() bool {
	return p.ValidView != NoView
}

// Encode returns the RLP encoding of the proposal.
func (p *Proposal) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(p)
}

// DecodeProposal decodes an RLP encoded proposal.
func DecodeProposal(in []byte) (*Proposal, error) {
	p := new(Proposal)
	if err := rlp.DecodeBytes(in, p); err != nil {
		return nil, fmt.Errorf("decoding proposal: %w", err)
	}
	return p, nil
}

func (p *Proposal) String() string {
	validView := "none"
	if p.HasProofOfLock() {
		validView = fmt.Sprint(p.ValidView)
	}
	return fmt.Sprintf("proposal %d/%d block=%s validView=%s originView=%d author=%s",
		p.Height, p.View, p.BlockHash().Short(), validView, p.OriginView, p.Header.Author)
}
