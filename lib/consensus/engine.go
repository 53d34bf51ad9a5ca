// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package consensus

import (
	"context"
	"fmt"
	"strings"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/holiman/uint256"
)

// Kind is the closed set of consensus algorithms.
type Kind uint8

const (
	// Solo seals every block with a single local signer.
	Solo Kind = iota
	// Authority rotates block production among a fixed list of signers.
	Authority
	// PoW seals blocks with a proof of work.
	PoW
	// BFT finalizes blocks through rounds of validator votes.
	BFT
)

func (k Kind) String() string {
	switch k {
	case Solo:
		return "solo"
	case Authority:
		return "authority"
	case PoW:
		return "pow"
	case BFT:
		return "bft"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind parses the configuration name of an algorithm.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{Solo, Authority, PoW, BFT} {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown engine %q", ErrConfiguration, s)
}

// Engine is the capability surface of a consensus algorithm. The algorithm
// is chosen once at construction and never changes.
type Engine interface {
	// Kind returns the algorithm of the engine.
	Kind() Kind
	// GenerateSeal returns the seal for candidate, or ErrNotReady when the
	// seal cannot be produced yet. It never blocks past ctx.
	GenerateSeal(ctx context.Context, candidate *types.Header, signer Signer) (types.Seal, error)
	// VerifySeal checks the seal of header on its own.
	VerifySeal(header, parent *types.Header) error
	// VerifyBlockExternal checks the invariants linking header to the chain.
	VerifyBlockExternal(header, parent *types.Header) error
	// OnEpochBegin is called by the block importer when height starts a new epoch.
	OnEpochBegin(height uint64) error
	// IsEpochEnd reports whether header is the last block of its epoch.
	IsEpochEnd(header *types.Header) bool
	// CalculateScore returns the chain weight header adds. It is zero
	// for algorithms that do not score blocks.
	CalculateScore(header *types.Header) *uint256.Int
}
