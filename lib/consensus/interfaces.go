// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package consensus

import (
	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/lib/common"
)

// HeaderProvider is the block storage as seen by consensus.
type HeaderProvider interface {
	HeaderAt(hash common.Hash) (*types.Header, error)
	IsFinalized(hash common.Hash) (bool, error)
}

// StateRoot computes the state root a header commits to.
type StateRoot interface {
	Compute(transactions [][]byte, parentState common.Hash) (common.Hash, error)
}

// Signer is the local signing identity.
type Signer interface {
	Sign(digest []byte) ([]byte, error)
	Identity() common.Address
}

// BlockImporter receives blocks finalized by consensus.
type BlockImporter interface {
	ImportCommitted(header *types.Header) error
}

// Message is an outbound consensus message.
type Message interface {
	Encode() ([]byte, error)
}

// Network broadcasts consensus messages to peers.
type Network interface {
	Gossip(msg Message)
}

// EvidenceHandler is notified of every equivocation detected.
type EvidenceHandler interface {
	HandleEquivocation(evidence *types.Equivocation)
}
