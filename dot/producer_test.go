// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package dot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ChainSafe/chaindb"
	"github.com/ChainSafe/sealer/dot/state"
	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ChainSafe/sealer/lib/consensus"
	"github.com/ChainSafe/sealer/lib/consensus/solo"
	"github.com/ChainSafe/sealer/lib/crypto/secp256k1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *state.Service {
	t.Helper()

	db, err := chaindb.NewBadgerDB(&chaindb.Config{
		DataDir:  t.TempDir(),
		InMemory: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	st := state.NewServiceFromDB(db)
	require.NoError(t, st.Initialise(&types.Header{Timestamp: 100}, nil))
	return st
}

// delayedEngine answers ErrNotReady to the first calls of GenerateSeal.
type delayedEngine struct {
	consensus.Engine
	notReady int
	calls    int
	onCall   func()
}

func (e *delayedEngine) GenerateSeal(ctx context.Context, candidate *types.Header,
	signer consensus.Signer) (types.Seal, error) {
	e.calls++
	if e.onCall != nil {
		e.onCall()
	}
	if e.calls <= e.notReady {
		return nil, fmt.Errorf("%w: call %d", consensus.ErrNotReady, e.calls)
	}
	return e.Engine.GenerateSeal(ctx, candidate, signer)
}

func newTestProducer(t *testing.T, st *state.Service, engine consensus.Engine,
	kp *secp256k1.Keypair) *Producer {
	t.Helper()

	p, err := NewProducer(ProducerConfig{
		Engine: engine,
		Signer: kp,
		Blocks: st.Block,
		Retry:  time.Millisecond,
	})
	require.NoError(t, err)
	p.now = func() time.Time { return time.Unix(50, 0) }
	return p
}

func Test_NewProducer(t *testing.T) {
	t.Parallel()

	_, err := NewProducer(ProducerConfig{})
	assert.ErrorIs(t, err, consensus.ErrConfiguration)

	p, err := NewProducer(ProducerConfig{
		Engine: &delayedEngine{},
		Signer: &secp256k1.Keypair{},
		Blocks: &state.BlockState{},
	})
	require.NoError(t, err)
	assert.Equal(t, defaultRetryInterval, p.cfg.Retry)
	assert.NoError(t, p.Stop())
}

func Test_Producer_ProduceBlock(t *testing.T) {
	t.Parallel()

	kp, err := secp256k1.GenerateKeypair()
	require.NoError(t, err)
	engine, err := solo.New(kp.Identity())
	require.NoError(t, err)

	st := newTestState(t)
	delayed := &delayedEngine{Engine: engine, notReady: 2}
	p := newTestProducer(t, st, delayed, kp)

	header, err := p.ProduceBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, delayed.calls)
	assert.Equal(t, uint64(1), header.Number)
	// the clock is behind the parent
	assert.Equal(t, uint64(101), header.Timestamp)
	assert.Equal(t, kp.Identity(), header.Author)

	finalized, err := st.Block.FinalizedHeader()
	require.NoError(t, err)
	assert.Equal(t, header.SealedHash(), finalized.SealedHash())
}

func Test_Producer_ProduceBlock_otherProposer(t *testing.T) {
	t.Parallel()

	kp, err := secp256k1.GenerateKeypair()
	require.NoError(t, err)
	engine, err := solo.New(kp.Identity())
	require.NoError(t, err)

	st := newTestState(t)
	genesis, err := st.Block.BestHeader()
	require.NoError(t, err)
	other := types.NewHeader(genesis, 200, common.Address{9}, common.EmptyHash, common.EmptyHash)

	delayed := &delayedEngine{Engine: engine, notReady: 10}
	delayed.onCall = func() {
		require.NoError(t, st.Block.ImportCommitted(other))
	}
	p := newTestProducer(t, st, delayed, kp)

	header, err := p.ProduceBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, other.Hash(), header.Hash())
	assert.Equal(t, 1, delayed.calls)
}

func Test_Producer_ProduceBlock_canceled(t *testing.T) {
	t.Parallel()

	kp, err := secp256k1.GenerateKeypair()
	require.NoError(t, err)
	engine, err := solo.New(kp.Identity())
	require.NoError(t, err)

	st := newTestState(t)
	p := newTestProducer(t, st, &delayedEngine{Engine: engine, notReady: 1}, kp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.ProduceBlock(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_Producer_ProduceBlock_foreignSigner(t *testing.T) {
	t.Parallel()

	kp, err := secp256k1.GenerateKeypair()
	require.NoError(t, err)
	// the configured solo signer is someone else
	engine, err := solo.New(common.Address{1})
	require.NoError(t, err)

	st := newTestState(t)
	p := newTestProducer(t, st, engine, kp)

	genesis, err := st.Block.BestHeader()
	require.NoError(t, err)
	_, err = engine.GenerateSeal(context.Background(), p.candidate(genesis, genesis.StateRoot), kp)
	require.ErrorIs(t, err, consensus.ErrNotReady)

	// the producer waits for a signer that never comes
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = p.ProduceBlock(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	best, err := st.Block.BestHeader()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), best.Number)
}

type fixedState struct {
	root    common.Hash
	parents []common.Hash
}

func (s *fixedState) Compute(transactions [][]byte, parentState common.Hash) (common.Hash, error) {
	s.parents = append(s.parents, parentState)
	return s.root, nil
}

// committingEngine reports itself as BFT and counts the epochs it is asked
// to begin.
type committingEngine struct {
	consensus.Engine
	epochsBegun int
}

func (*committingEngine) Kind() consensus.Kind { return consensus.BFT }

func (*committingEngine) IsEpochEnd(*types.Header) bool { return true }

func (e *committingEngine) OnEpochBegin(uint64) error {
	e.epochsBegun++
	return nil
}

func Test_Producer_ProduceBlock_committedByEngine(t *testing.T) {
	t.Parallel()

	kp, err := secp256k1.GenerateKeypair()
	require.NoError(t, err)
	engine, err := solo.New(kp.Identity())
	require.NoError(t, err)

	st := newTestState(t)
	committing := &committingEngine{Engine: engine}
	p := newTestProducer(t, st, committing, kp)

	header, err := p.ProduceBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), header.Number)
	assert.Zero(t, committing.epochsBegun)

	best, err := st.Block.BestHeader()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), best.Number)
}

func Test_Producer_ProduceBlock_stateRoot(t *testing.T) {
	t.Parallel()

	kp, err := secp256k1.GenerateKeypair()
	require.NoError(t, err)
	engine, err := solo.New(kp.Identity())
	require.NoError(t, err)

	st := newTestState(t)
	p := newTestProducer(t, st, engine, kp)
	stateRoot := &fixedState{root: common.Hash{7}}
	p.cfg.StateRoot = stateRoot

	first, err := p.ProduceBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, common.Hash{7}, first.StateRoot)

	_, err = p.ProduceBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []common.Hash{common.EmptyHash, {7}}, stateRoot.parents)
}

func Test_ChainedState_Compute(t *testing.T) {
	t.Parallel()

	parent := common.Hash{1}

	root, err := ChainedState{}.Compute(nil, parent)
	require.NoError(t, err)
	assert.Equal(t, parent, root)

	one, err := ChainedState{}.Compute([][]byte{{1}}, parent)
	require.NoError(t, err)
	assert.NotEqual(t, parent, one)

	two, err := ChainedState{}.Compute([][]byte{{1}, {2}}, parent)
	require.NoError(t, err)
	chained, err := ChainedState{}.Compute([][]byte{{2}}, one)
	require.NoError(t, err)
	assert.Equal(t, chained, two)
}

func Test_Producer_StartStop(t *testing.T) {
	t.Parallel()

	kp, err := secp256k1.GenerateKeypair()
	require.NoError(t, err)
	engine, err := solo.New(kp.Identity())
	require.NoError(t, err)

	st := newTestState(t)
	p := newTestProducer(t, st, engine, kp)
	p.cfg.Interval = time.Millisecond

	require.NoError(t, p.Start())
	require.Eventually(t, func() bool {
		best, err := st.Block.BestHeader()
		return err == nil && best.Number >= 2
	}, 10*time.Second, time.Millisecond)
	assert.NoError(t, p.Stop())

	select {
	case <-p.Done():
	default:
		t.Fatal("producer still running")
	}
}

func Test_Producer_Stop_withoutInterval(t *testing.T) {
	t.Parallel()

	kp, err := secp256k1.GenerateKeypair()
	require.NoError(t, err)
	engine, err := solo.New(kp.Identity())
	require.NoError(t, err)

	st := newTestState(t)
	p := newTestProducer(t, st, engine, kp)
	require.Zero(t, p.cfg.Interval)
	require.Zero(t, p.cfg.Limit)

	require.NoError(t, p.Start())
	require.Eventually(t, func() bool {
		best, err := st.Block.BestHeader()
		return err == nil && best.Number >= 1
	}, 10*time.Second, time.Millisecond)

	stopped := make(chan error)
	go func() {
		stopped <- p.Stop()
	}()

	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("producer did not stop")
	}
}
