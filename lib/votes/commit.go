// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package votes

import (
	"fmt"
	"runtime"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ChainSafe/sealer/lib/consensus"
	"github.com/ChainSafe/sealer/lib/crypto"
	"github.com/ChainSafe/sealer/lib/crypto/secp256k1"
	"github.com/ChainSafe/sealer/lib/validators"
)

// VerifyCommit checks sigs are precommits for hash at (height, view) from
// distinct validators of snapshot holding more than the threshold of its
// total weight.
func VerifyCommit(snapshot *types.ValidatorSnapshot, threshold validators.Threshold,
	height, view uint64, hash common.Hash, sigs []types.CommitSig) error {
	if hash == types.NilHash {
		return fmt.Errorf("%w: commit for nil", consensus.ErrInsufficientQuorum)
	}

	seen := make(map[common.Address]struct{}, len(sigs))
	var weight uint64
	for _, sig := range sigs {
		if _, has := seen[sig.Voter]; has {
			return fmt.Errorf("%w: duplicate signature from %s", consensus.ErrInvalidSignature, sig.Voter)
		}
		seen[sig.Voter] = struct{}{}

		w := snapshot.WeightOf(sig.Voter)
		if w == 0 {
			return fmt.Errorf("%w: %s", consensus.ErrUnknownValidator, sig.Voter)
		}
		weight += w
	}

	total := snapshot.TotalWeight()
	if !threshold.Reached(weight, total) {
		return fmt.Errorf("%w: weight %d of %d, threshold %s",
			consensus.ErrInsufficientQuorum, weight, total, threshold)
	}

	digest := types.VoteDigest(height, view, types.Precommit, hash)
	verifier := crypto.NewSignatureVerifier(logger, runtime.NumCPU())
	verifier.Start()
	for _, sig := range sigs {
		verifier.Add(&crypto.Signature{
			Signer:      sig.Voter,
			Sign:        sig.Signature,
			Msg:         digest[:],
			RecoverFunc: secp256k1.RecoverAddress,
		})
	}

	if err := verifier.Finish(); err != nil {
		return fmt.Errorf("%w: %s", consensus.ErrInvalidSignature, err)
	}
	return nil
}

// VerifyTransitionProof checks proof is a commit of the outgoing snapshot.
func VerifyTransitionProof(outgoing *types.ValidatorSnapshot, threshold validators.Threshold,
	proof *types.TransitionProof) error {
	err := VerifyCommit(outgoing, threshold, proof.Height, proof.View, proof.BlockHash, proof.Signatures)
	if err != nil {
		return fmt.Errorf("%w: %s", consensus.ErrEpochProofInvalid, err)
	}
	return nil
}
