// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package bft

import (
	"errors"
	"testing"
	"time"

	"github.com/ChainSafe/chaindb"
	"github.com/ChainSafe/sealer/dot/state"
	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ChainSafe/sealer/lib/consensus"
	"github.com/ChainSafe/sealer/lib/crypto/secp256k1"
	"github.com/ChainSafe/sealer/lib/validators"
	"github.com/golang/mock/gomock"
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/stretchr/testify/require"
)

const testHeight = 10

// slowTimeouts never fire during a test, which triggers them by hand.
var slowTimeouts = Timeouts{
	Propose:   time.Hour,
	Prevote:   time.Hour,
	Precommit: time.Hour,
	Growth:    Linear,
}

var errNotFound = errors.New("not found")

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

func newSnapshot(t *testing.T, keypairs []*secp256k1.Keypair) *types.ValidatorSnapshot {
	t.Helper()

	addrs := make([]common.Address, len(keypairs))
	for i, kp := range keypairs {
		addrs[i] = kp.Identity()
	}
	snapshot, err := types.NewValidatorSnapshotFromAddresses(addrs)
	require.NoError(t, err)
	return snapshot
}

// fixture is a service deciding height 10 among four validators. The
// proposers of views 0, 1, 2 and 3 are validators 2, 3, 0 and 1.
type fixture struct {
	service  *Service
	keypairs []*secp256k1.Keypair
	parent   *types.Header
	headers  *MockHeaderProvider
	importer *MockBlockImporter
	evidence *MockEvidenceHandler
	store    *state.VoteState
}

type fixtureOptions struct {
	// local is the index of the local validator, -1 for an observer
	local int
	store *state.VoteState
	// keypairs are reused when set, to restart a node
	keypairs []*secp256k1.Keypair
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	keypairs := opts.keypairs
	if keypairs == nil {
		keypairs = newKeypairs(t, 4)
	}

	set, err := validators.NewFixed(newSnapshot(t, keypairs))
	require.NoError(t, err)

	parent := &types.Header{Number: testHeight - 1, Timestamp: 100}
	headers := NewMockHeaderProvider(ctrl)
	headers.EXPECT().HeaderAt(parent.Hash()).Return(parent, nil).AnyTimes()
	headers.EXPECT().HeaderAt(gomock.Not(parent.Hash())).Return(nil, errNotFound).AnyTimes()

	network := NewMockNetwork(ctrl)
	network.EXPECT().Gossip(gomock.Any()).AnyTimes()

	f := &fixture{
		keypairs: keypairs,
		parent:   parent,
		headers:  headers,
		importer: NewMockBlockImporter(ctrl),
		evidence: NewMockEvidenceHandler(ctrl),
		store:    opts.store,
	}

	cfg := Config{
		Headers:    headers,
		Importer:   f.importer,
		Network:    network,
		Evidence:   f.evidence,
		Validators: set,
		Threshold:  validators.DefaultThreshold,
		Timeouts:   slowTimeouts,
	}
	if opts.local >= 0 {
		cfg.Signer = keypairs[opts.local]
	}
	if opts.store != nil {
		cfg.VoteStore = opts.store
	}

	f.service, err = NewService(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = f.service.Stop()
	})
	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.service.Start(testHeight))
}

// block returns a block at height 10 authored by validator author.
func (f *fixture) block(author int, salt byte) *types.Header {
	return types.NewHeader(f.parent, f.parent.Timestamp+1, f.keypairs[author].Identity(),
		common.Hash{}, common.Hash{salt})
}

// proposal returns a proposal whose block was first proposed at view, or
// at validView when it carries a proof of lock.
func (f *fixture) proposal(t *testing.T, proposer int, view, validView uint64, header *types.Header) *ProposalMessage {
	t.Helper()

	origin := view
	if validView != types.NoView {
		origin = validView
	}
	return f.proposalFrom(t, proposer, view, validView, origin, header)
}

func (f *fixture) proposalFrom(t *testing.T, proposer int, view, validView, origin uint64,
	header *types.Header) *ProposalMessage {
	t.Helper()

	p := &types.Proposal{
		Height:     testHeight,
		View:       view,
		ValidView:  validView,
		OriginView: origin,
		Header:     *header,
	}
	digest := p.Digest()
	sig, err := f.keypairs[proposer].Sign(digest[:])
	require.NoError(t, err)
	p.Signature = sig
	return &ProposalMessage{Proposal: p}
}

func (f *fixture) vote(t *testing.T, voter int, view uint64, step types.Step, hash common.Hash) *VoteMessage {
	t.Helper()
	return &VoteMessage{Vote: signVote(t, f.keypairs[voter], testHeight, view, step, hash)}
}

// expectCommit records the block imported by the service into committed.
func (f *fixture) expectCommit(committed **types.Header) {
	f.importer.EXPECT().ImportCommitted(gomock.Any()).DoAndReturn(func(header *types.Header) error {
		*committed = header
		return nil
	})
}

func (f *fixture) send(t *testing.T, msg consensus.Message) error {
	t.Helper()

	enc, err := msg.Encode()
	require.NoError(t, err)
	return f.service.HandleMessage(peer.ID("peer"), enc)
}

// localVote returns the vote the local validator cast at (view, step).
func (f *fixture) localVote(t *testing.T, local int, view uint64, step types.Step) *types.Vote {
	t.Helper()

	for _, v := range f.service.Collector().VotesByVoter(f.keypairs[local].Identity()) {
		if v.Height == testHeight && v.View == view && v.Step == step {
			return v
		}
	}
	require.FailNowf(t, "no local vote", "view %d step %s", view, step)
	return nil
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
