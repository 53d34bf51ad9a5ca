// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package dot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ChainSafe/sealer/dot/state"
	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ChainSafe/sealer/lib/consensus"
)

const defaultRetryInterval = 200 * time.Millisecond

// ProducerConfig configures the block producer of a development chain.
type ProducerConfig struct {
	Engine consensus.Engine
	Signer consensus.Signer
	Blocks *state.BlockState
	// StateRoot computes the state root of new blocks. It defaults to
	// ChainedState.
	StateRoot consensus.StateRoot
	// Interval is the pause between two blocks.
	Interval time.Duration
	// Retry is the pause after the engine answered ErrNotReady.
	Retry time.Duration
	// Limit stops the producer after that many blocks. Zero means no limit.
	Limit uint64
}

// Producer builds empty blocks on the best block and asks the engine to
// seal them.
type Producer struct {
	cfg ProducerConfig
	now func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// NewProducer returns a stopped producer.
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if cfg.Engine == nil || cfg.Signer == nil || cfg.Blocks == nil {
		return nil, fmt.Errorf("%w: producer needs an engine, a signer and block storage",
			consensus.ErrConfiguration)
	}
	if cfg.Retry == 0 {
		cfg.Retry = defaultRetryInterval
	}
	if cfg.StateRoot == nil {
		cfg.StateRoot = ChainedState{}
	}
	return &Producer{cfg: cfg, now: time.Now}, nil
}

// Start runs the production loop in the background.
func (p *Producer) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		p.err = p.run(ctx)
	}()
	return nil
}

// Stop stops the loop and returns the error it ended with, if any.
func (p *Producer) Stop() error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	<-p.done
	if errors.Is(p.err, context.Canceled) {
		return nil
	}
	return p.err
}

// Done is closed when the loop ends, on Stop or after Limit blocks.
func (p *Producer) Done() <-chan struct{} {
	return p.done
}

func (p *Producer) run(ctx context.Context) error {
	for produced := uint64(0); p.cfg.Limit == 0 || produced < p.cfg.Limit; produced++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		header, err := p.ProduceBlock(ctx)
		if err != nil {
			return err
		}
		logger.Infof("imported block %d %s sealed by %s", header.Number, header.Hash().Short(), header.Author)

		if p.cfg.Interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.cfg.Interval):
			}
		}
	}
	return nil
}

// ProduceBlock seals a block on the best block and returns it once it is
// finalized.
func (p *Producer) ProduceBlock(ctx context.Context) (*types.Header, error) {
	parent, err := p.cfg.Blocks.BestHeader()
	if err != nil {
		return nil, fmt.Errorf("cannot get best header: %w", err)
	}
	// blocks carry no transaction yet
	stateRoot, err := p.cfg.StateRoot.Compute(nil, parent.StateRoot)
	if err != nil {
		return nil, fmt.Errorf("cannot compute state root of block %d: %w", parent.Number+1, err)
	}
	candidate := p.candidate(parent, stateRoot)

	for {
		seal, err := p.cfg.Engine.GenerateSeal(ctx, candidate, p.cfg.Signer)
		if err == nil {
			return p.finalize(candidate.WithSeal(seal), parent)
		}
		if !errors.Is(err, consensus.ErrNotReady) {
			return nil, fmt.Errorf("cannot seal block %d: %w", candidate.Number, err)
		}
		logger.Tracef("block %d not ready: %s", candidate.Number, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.cfg.Retry):
		}

		best, err := p.cfg.Blocks.BestHeader()
		if err != nil {
			return nil, fmt.Errorf("cannot get best header: %w", err)
		}
		switch {
		case best.Number >= candidate.Number:
			// a block of another proposer was finalized meanwhile
			return best, nil
		case p.cfg.Engine.Kind() == consensus.Authority:
			// the authority step follows the candidate timestamp
			candidate = p.candidate(parent, stateRoot)
		}
	}
}

func (p *Producer) candidate(parent *types.Header, stateRoot common.Hash) *types.Header {
	timestamp := uint64(p.now().Unix())
	if timestamp <= parent.Timestamp {
		timestamp = parent.Timestamp + 1
	}
	return types.NewHeader(parent, timestamp, p.cfg.Signer.Identity(), common.EmptyHash, stateRoot)
}

func (p *Producer) finalize(sealed, parent *types.Header) (*types.Header, error) {
	if err := p.cfg.Engine.VerifySeal(sealed, parent); err != nil {
		return nil, fmt.Errorf("sealed block %d: %w", sealed.Number, err)
	}
	if err := p.cfg.Engine.VerifyBlockExternal(sealed, parent); err != nil {
		return nil, fmt.Errorf("sealed block %d: %w", sealed.Number, err)
	}

	// the BFT machine imports the blocks it commits and begins the
	// epochs they end
	if p.cfg.Engine.Kind() == consensus.BFT {
		return sealed, nil
	}

	if err := p.cfg.Blocks.ImportCommitted(sealed); err != nil {
		return nil, fmt.Errorf("cannot import block %d: %w", sealed.Number, err)
	}

	if p.cfg.Engine.IsEpochEnd(sealed) {
		if err := p.cfg.Engine.OnEpochBegin(sealed.Number + 1); err != nil {
			return nil, fmt.Errorf("cannot begin epoch at %d: %w", sealed.Number+1, err)
		}
	}
	return sealed, nil
}

// ChainedState is the state transition of a development chain: the state
// root chains the transactions applied on the parent state, and an empty
// block keeps the parent state.
type ChainedState struct{}

// Compute returns the state root after applying transactions on parentState.
func (ChainedState) Compute(transactions [][]byte, parentState common.Hash) (common.Hash, error) {
	root := parentState
	for _, tx := range transactions {
		next, err := common.Blake2bConcat(root[:], tx)
		if err != nil {
			return common.EmptyHash, err
		}
		root = next
	}
	return root, nil
}
