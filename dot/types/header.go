// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"fmt"

	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// Seal is the algorithm specific proof attached to a header. Each field is an
// opaque byte string decoded only by the engine that produced it.
type Seal [][]byte

// Copy returns a deep copy of the seal.
func (s Seal) Copy() Seal {
	if s == nil {
		return nil
	}
	cp := make(Seal, len(s))
	for i, field := range s {
		cp[i] = append([]byte(nil), field...)
	}
	return cp
}

// Header is a block header
type Header struct {
	ParentHash       common.Hash    `json:"parentHash"`
	Timestamp        uint64         `json:"timestamp"`
	Number           uint64         `json:"number"`
	Author           common.Address `json:"author"`
	TransactionsRoot common.Hash    `json:"transactionsRoot"`
	StateRoot        common.Hash    `json:"stateRoot"`
	Seal             Seal           `json:"seal"`
}

// NewHeader creates a new unsealed block header extending parent.
func NewHeader(parent *Header, timestamp uint64, author common.Address,
	transactionsRoot, stateRoot common.Hash) *Header {
	return &Header{
		ParentHash:       parent.Hash(),
		Timestamp:        timestamp,
		Number:           parent.Number + 1,
		Author:           author,
		TransactionsRoot: transactionsRoot,
		StateRoot:        stateRoot,
	}
}

// Encode returns the RLP encoding of the header fields in order.
func (bh *Header) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(bh)
}

// MustEncode returns the encoded header, panicking on error.
func (bh *Header) MustEncode() []byte {
	enc, err := bh.Encode()
	if err != nil {
		panic(err)
	}
	return enc
}

// DecodeHeader decodes an RLP encoded header.
func DecodeHeader(in []byte) (*Header, error) {
	bh := new(Header)
	if err := rlp.DecodeBytes(in, bh); err != nil {
		return nil, fmt.Errorf("decoding header: %w", err)
	}
	if len(bh.Seal) == 0 {
		bh.Seal = nil
	}
	return bh, nil
}

// Hash returns the block hash: the blake2b hash of the header encoded with
// an empty seal. The seal attests to this hash, so the same block sealed
// by different nodes keeps one identity.
func (bh *Header) Hash() common.Hash {
	bare := *bh
	bare.Seal = nil
	return common.MustBlake2bHash(bare.MustEncode())
}

// SealedHash returns the blake2b hash of the full header encoding, seal included.
func (bh *Header) SealedHash() common.Hash {
	return common.MustBlake2bHash(bh.MustEncode())
}

// DeepCopy returns a deep copy of the header.
func (bh *Header) DeepCopy() *Header {
	cp := *bh
	cp.Seal = bh.Seal.Copy()
	return &cp
}

// WithSeal returns a copy of the header carrying the given seal.
func (bh *Header) WithSeal(seal Seal) *Header {
	cp := bh.DeepCopy()
	cp.Seal = seal.Copy()
	return cp
}

// String returns the formatted header as a string
func (bh *Header) String() string {
	return fmt.Sprintf("Number=%d ParentHash=%s Timestamp=%d Author=%s StateRoot=%s TransactionsRoot=%s Seal=%d fields",
		bh.Number, bh.ParentHash.Short(), bh.Timestamp, bh.Author, bh.StateRoot.Short(),
		bh.TransactionsRoot.Short(), len(bh.Seal))
}
