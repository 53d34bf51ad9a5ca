// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"testing"

	"github.com/ChainSafe/chaindb"
	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/stretchr/testify/require"
)

func newInMemoryDB(t *testing.T) chaindb.Database {
	t.Helper()

	db, err := chaindb.NewBadgerDB(&chaindb.Config{
		DataDir:  t.TempDir(),
		InMemory: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func newTestService(t *testing.T) (*Service, *types.Header) {
	t.Helper()

	genesis := &types.Header{Timestamp: 1000}
	s := NewServiceFromDB(newInMemoryDB(t))
	require.NoError(t, s.Initialise(genesis, newTestEpoch(t, 0, 0)))
	return s, genesis
}

func newTestEpoch(t *testing.T, number, firstHeight uint64) *types.EpochRecord {
	t.Helper()

	snapshot, err := types.NewValidatorSnapshotFromAddresses([]common.Address{{1}, {2}, {3}})
	require.NoError(t, err)
	return &types.EpochRecord{
		Number:      number,
		FirstHeight: firstHeight,
		Validators:  *snapshot,
	}
}

// newChain builds n headers on top of parent, using salt to fork.
func newChain(parent *types.Header, n int, salt byte) []*types.Header {
	headers := make([]*types.Header, n)
	for i := range headers {
		header := types.NewHeader(parent, parent.Timestamp+1, common.Address{salt}, common.Hash{}, common.Hash{salt})
		headers[i] = header
		parent = header
	}
	return headers
}
