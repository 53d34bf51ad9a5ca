// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package consensus

import (
	"encoding/binary"
	"fmt"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ChainSafe/sealer/lib/crypto/secp256k1"
)

// VerifyParent checks header extends parent: consecutive numbers, matching
// parent hash and a timestamp not before the parent's.
func VerifyParent(header, parent *types.Header) error {
	if header.Number != parent.Number+1 {
		return fmt.Errorf("%w: number %d does not follow parent number %d",
			ErrInvalidHeader, header.Number, parent.Number)
	}

	if header.ParentHash != parent.Hash() {
		return fmt.Errorf("%w: parent hash %s does not match parent %s",
			ErrInvalidHeader, header.ParentHash.Short(), parent.Hash().Short())
	}

	if header.Timestamp < parent.Timestamp {
		return fmt.Errorf("%w: timestamp %d before parent timestamp %d",
			ErrInvalidHeader, header.Timestamp, parent.Timestamp)
	}

	return nil
}

// ProposerIndex returns the index of the proposer for (height, view) in a
// set of count validators.
func ProposerIndex(height, view uint64, count int) int {
	n := uint64(count)
	return int((height%n + view%n) % n)
}

// Proposer returns the proposer for (height, view) in the snapshot.
func Proposer(snapshot *types.ValidatorSnapshot, height, view uint64) common.Address {
	return snapshot.At(ProposerIndex(height, view, snapshot.Len())).Address
}

// RecoverSigner returns the address that produced sig over digest.
func RecoverSigner(digest common.Hash, sig []byte) (common.Address, error) {
	addr, err := secp256k1.RecoverAddress(digest[:], sig)
	if err != nil {
		return common.EmptyAddress, fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}
	return addr, nil
}

// SignDigest signs digest with signer.
func SignDigest(signer Signer, digest common.Hash) ([]byte, error) {
	return signer.Sign(digest[:])
}

// EncodeView encodes a view number as a seal field.
func EncodeView(view uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, view)
	return buf
}

// DecodeView decodes a view seal field.
func DecodeView(field []byte) (uint64, error) {
	if len(field) != 8 {
		return 0, fmt.Errorf("%w: view field has %d bytes", ErrInvalidSeal, len(field))
	}
	return binary.BigEndian.Uint64(field), nil
}
