// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package votes

import (
	"testing"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ChainSafe/sealer/lib/crypto/secp256k1"
	"github.com/ChainSafe/sealer/lib/validators"
	"github.com/stretchr/testify/require"
)

func newKeypairs(t *testing.T, n int) []*secp256k1.Keypair {
	t.Helper()

	keypairs := make([]*secp256k1.Keypair, n)
	for i := range keypairs {
		kp, err := secp256k1.GenerateKeypair()
		require.NoError(t, err)
		keypairs[i] = kp
	}
	return keypairs
}

func newFixedSet(t *testing.T, keypairs []*secp256k1.Keypair) *validators.Fixed {
	t.Helper()

	addrs := make([]common.Address, len(keypairs))
	for i, kp := range keypairs {
		addrs[i] = kp.Identity()
	}
	snapshot, err := types.NewValidatorSnapshotFromAddresses(addrs)
	require.NoError(t, err)

	set, err := validators.NewFixed(snapshot)
	require.NoError(t, err)
	return set
}

func signVote(t *testing.T, kp *secp256k1.Keypair, height, view uint64,
	step types.Step, hash common.Hash) *types.Vote {
	t.Helper()

	vote := &types.Vote{
		Height:    height,
		View:      view,
		Step:      step,
		BlockHash: hash,
		Voter:     kp.Identity(),
	}
	digest := vote.Digest()
	sig, err := kp.Sign(digest[:])
	require.NoError(t, err)
	vote.Signature = sig
	return vote
}
