// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package epoch

import (
	"fmt"
	"sync"

	"github.com/ChainSafe/sealer/dot/types"
	"github.com/ChainSafe/sealer/lib/common"
	"github.com/ChainSafe/sealer/lib/consensus"
)

// Source decides whether a finalized header triggers a validator set change.
type Source interface {
	// TransitionAt returns the set taking effect at finalized.Number + 1,
	// or nil if the set does not change there.
	TransitionAt(finalized *types.Header) (*types.ValidatorSnapshot, error)
}

// Schedule is a static list of validator sets keyed by activation height.
type Schedule struct {
	sets map[uint64]*types.ValidatorSnapshot
}

var _ Source = (*Schedule)(nil)

// NewSchedule validates the configured transitions.
func NewSchedule(transitions map[uint64][]types.Validator) (*Schedule, error) {
	sets := make(map[uint64]*types.ValidatorSnapshot, len(transitions))
	for height, vals := range transitions {
		if height == 0 {
			return nil, fmt.Errorf("%w: transition at height 0", consensus.ErrConfiguration)
		}
		snapshot, err := types.NewValidatorSnapshot(vals)
		if err != nil {
			return nil, fmt.Errorf("%w: transition at height %d: %s", consensus.ErrConfiguration, height, err)
		}
		sets[height] = snapshot
	}
	return &Schedule{sets: sets}, nil
}

// TransitionAt returns the set scheduled for finalized.Number + 1.
func (s *Schedule) TransitionAt(finalized *types.Header) (*types.ValidatorSnapshot, error) {
	return s.sets[finalized.Number+1], nil
}

// SignalSource holds validator set changes signalled by on-chain
// transactions. The execution layer registers a signal for the block that
// carries the transaction; it takes effect once that block is finalized.
type SignalSource struct {
	lock    sync.RWMutex
	signals map[common.Hash]*types.ValidatorSnapshot
}

var _ Source = (*SignalSource)(nil)

// NewSignalSource returns an empty SignalSource.
func NewSignalSource() *SignalSource {
	return &SignalSource{
		signals: make(map[common.Hash]*types.ValidatorSnapshot),
	}
}

// Signal records that block blockHash requests the validator set vals.
func (s *SignalSource) Signal(blockHash common.Hash, vals []types.Validator) error {
	snapshot, err := types.NewValidatorSnapshot(vals)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.signals[blockHash] = snapshot
	return nil
}

// TransitionAt returns the set signalled by finalized, if any.
func (s *SignalSource) TransitionAt(finalized *types.Header) (*types.ValidatorSnapshot, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.signals[finalized.Hash()], nil
}

// Forget drops the signal of blockHash, once committed or abandoned.
func (s *SignalSource) Forget(blockHash common.Hash) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.signals, blockHash)
}
